package preview

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/meshtest"
	"mesh-seam-merge/internal/seam"
	"mesh-seam-merge/internal/session"
	"mesh-seam-merge/internal/skin"
)

func opaque(img *image.NRGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			n++
		}
	}
	return n
}

func countColor(img *image.NRGBA, c color.NRGBA) int {
	n := 0
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i] == c.R && img.Pix[i+1] == c.G && img.Pix[i+2] == c.B {
			n++
		}
	}
	return n
}

func TestRenderEmpty(t *testing.T) {
	img := Render(nil, nil, Options{Size: 32})
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
	assert.Zero(t, opaque(img))
}

func TestRenderFacingQuad(t *testing.T) {
	q := meshtest.Quad("q", mathutil.Vec3{})
	img := Render([]Layer{{Mesh: q, Color: FaceColor}}, nil, Options{Size: 64, Supersample: 1})
	require.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

	// the quad fills the framed area inside the 16 px margin
	assert.Greater(t, opaque(img), 32*32-64)
	assert.Zero(t, img.NRGBAAt(2, 2).A)
	assert.Equal(t, uint8(255), img.NRGBAAt(32, 32).A)
}

func TestRenderMarkers(t *testing.T) {
	q := meshtest.Quad("q", mathutil.Vec3{})
	layers := []Layer{{Mesh: q, Color: FaceColor}}
	opts := Options{Size: 64, Supersample: 1}

	img := Render(layers, []mathutil.Vec3{{0.5, 0.5, 0}}, opts)
	assert.Greater(t, countColor(img, MarkerColor), 4)

	// a marker behind the surface is hidden
	img = Render(layers, []mathutil.Vec3{{0.5, 0.5, -5}}, opts)
	assert.Zero(t, countColor(img, MarkerColor))
}

func TestRenderFlatAndChecker(t *testing.T) {
	q := meshtest.Quad("q", mathutil.Vec3{})
	q.Normals = nil
	img := Render([]Layer{{Mesh: q, Color: BodyColor}}, nil, Options{Size: 48, Supersample: 2, Checker: true})
	assert.Equal(t, image.Rect(0, 0, 48, 48), img.Bounds())
	assert.Greater(t, opaque(img), 0)
}

func TestFitCamera(t *testing.T) {
	pts := []mathutil.Vec3{{-1, -1, 0}, {1, 1, 0}}
	cam := FitCamera(mathutil.Mat3Identity(), pts, 100, 10)
	x, y, _ := cam.Project(mathutil.Vec3{-1, 1, 0})
	assert.InDelta(t, 10, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)
	x, y, _ = cam.Project(mathutil.Vec3{0, 0, 0})
	assert.InDelta(t, 50, x, 1e-9)
	assert.InDelta(t, 50, y, 1e-9)
}

func TestDownsample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	dst := Downsample(src, 2)
	assert.Equal(t, image.Rect(0, 0, 4, 4), dst.Bounds())
	c := dst.NRGBAAt(1, 1)
	assert.InDelta(t, 200, int(c.R), 2)
	assert.InDelta(t, 200, int(c.A), 2)
	assert.Same(t, src, Downsample(src, 1))

	// a half-transparent edge keeps its colour instead of darkening
	edge := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			edge.SetNRGBA(x, y, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
		}
	}
	half := Downsample(edge, 4).NRGBAAt(0, 0)
	assert.Greater(t, int(half.A), 0)
	assert.Less(t, int(half.A), 255)
	assert.InDelta(t, 240, int(half.R), 4)
}

func TestSampleTextureWraps(t *testing.T) {
	tex := Checker(4, 2, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	r1, _, _, a := SampleTexture(tex, 0, 0)
	r2, _, _, _ := SampleTexture(tex, 1, 1)
	assert.Equal(t, r1, r2)
	assert.Equal(t, uint8(255), a)
}

func TestEncode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	img.SetNRGBA(3, 3, color.NRGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, "webp"))
	b := buf.Bytes()
	require.Greater(t, len(b), 12)
	assert.Equal(t, "RIFF", string(b[:4]))
	assert.Equal(t, "WEBP", string(b[8:12]))

	buf.Reset()
	require.NoError(t, Encode(&buf, img, "TGA"))
	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "tga", format)
	assert.Equal(t, 8, cfg.Width)

	assert.ErrorIs(t, Encode(&buf, img, "bmp"), ErrUnknownFormat)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	path := filepath.Join(dir, "sub", "seam.webp")
	require.NoError(t, WriteFile(path, img))
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(0))

	assert.ErrorIs(t, WriteFile(filepath.Join(dir, "seam.png"), img), ErrUnknownFormat)
}

func TestSessionScene(t *testing.T) {
	face := session.NewMeshWorkspace(meshtest.Quad("face", mathutil.Vec3{}), skin.IdentityRig(), nil)
	body := session.NewMeshWorkspace(meshtest.Quad("body", mathutil.Vec3{0, -1, 0}), skin.IdentityRig(), nil)
	s := session.New(face, body)
	s.AddPair(seam.Pair{Face: 0, Body: 2})

	layers, markers := SessionScene(s)
	require.Len(t, layers, 2)
	assert.Equal(t, FaceColor, layers[0].Color)
	require.Len(t, markers, 1)
	assert.True(t, markers[0].ApproxEqual(mathutil.Vec3{0, 0, 0}, 1e-9))

	img := Render(layers, markers, Options{Size: 64, Supersample: 1})
	assert.Greater(t, countColor(img, MarkerColor), 0)
}
