// Package preview renders merged meshes to small images so a seam can be
// checked without opening a DCC tool.
package preview

import (
	"image"
	"image/color"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
)

// Layer is one mesh drawn into a preview.
type Layer struct {
	Mesh      *mesh.Mesh
	Transform mathutil.Mat4 // mesh -> world; zero means identity
	Color     color.NRGBA
}

// Options controls framing and output size.
type Options struct {
	Size        int
	Supersample int
	Yaw, Pitch  float64 // degrees
	Checker     bool    // UV checker instead of flat color
}

// DefaultOptions returns a 512 px three-quarter view at 2× supersampling.
func DefaultOptions() Options {
	return Options{Size: 512, Supersample: 2, Yaw: 30, Pitch: 15}
}

// MarkerColor is used for seam pair markers.
var MarkerColor = color.NRGBA{R: 255, G: 64, B: 48, A: 255}

// Render draws every layer and a marker at each world point, lit with
// DefaultLightConfig and downsampled to opts.Size.
func Render(layers []Layer, markers []mathutil.Vec3, opts Options) *image.NRGBA {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	ss := max(opts.Supersample, 1)
	renderSize := opts.Size * ss

	// World positions and normals per layer
	worlds := make([][]mathutil.Vec3, len(layers))
	normals := make([][]mathutil.Vec3, len(layers))
	var all []mathutil.Vec3
	for li, l := range layers {
		if l.Mesh == nil {
			continue
		}
		xf := l.Transform
		if xf.IsZero() {
			xf = mathutil.Mat4Identity()
		}
		worlds[li] = make([]mathutil.Vec3, len(l.Mesh.Vertices))
		for i, v := range l.Mesh.Vertices {
			worlds[li][i] = xf.MulPoint(v)
		}
		if l.Mesh.HasNormals() {
			normals[li] = make([]mathutil.Vec3, len(l.Mesh.Normals))
			for i, n := range l.Mesh.Normals {
				normals[li][i] = xf.MulDir(n).Normalize()
			}
		}
		all = append(all, worlds[li]...)
	}

	if len(all) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	}

	cam := FitCamera(mathutil.OrbitView(opts.Yaw, opts.Pitch), all, renderSize, 16*ss)
	fb := NewFrameBuffer(renderSize, renderSize)
	lc := DefaultLightConfig()

	for li, l := range layers {
		if l.Mesh == nil {
			continue
		}
		var tex *image.NRGBA
		if opts.Checker && l.Mesh.HasUVs() {
			tex = Checker(256, 16, l.Color)
		}
		drawMesh(fb, cam, &lc, l, worlds[li], normals[li], tex)
	}

	bias := cam.Span * 0.01
	radius := 2.5 * float64(ss)
	for _, p := range markers {
		x, y, z := cam.Project(p)
		DrawMarker(fb, x, y, z, radius, bias, MarkerColor)
	}

	img := image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	copy(img.Pix, fb.Color)
	if ss > 1 {
		img = Downsample(img, ss)
	}
	return img
}

func drawMesh(fb *FrameBuffer, cam Camera, lc *LightConfig, l Layer, world, normals []mathutil.Vec3, tex *image.NRGBA) {
	m := l.Mesh
	n := len(world)
	vs := make([]Vertex, n)
	for i, p := range world {
		x, y, z := cam.Project(p)
		vs[i] = Vertex{X: x, Y: y, Z: z}
		if normals != nil {
			vs[i].Shade = lc.ComputeShade(cam.Rotate(normals[i]))
		}
		if m.HasUVs() {
			vs[i].U, vs[i].V = m.UVs[i][0], m.UVs[i][1]
		}
	}

	tris := m.Triangles()
	for t := 0; t+2 < len(tris); t += 3 {
		a, b, c := tris[t], tris[t+1], tris[t+2]
		if a < 0 || b < 0 || c < 0 || a >= n || b >= n || c >= n {
			continue
		}
		tri := [3]Vertex{vs[a], vs[b], vs[c]}
		if normals == nil {
			// Flat shading from the face normal
			fn := world[b].Sub(world[a]).Cross(world[c].Sub(world[a])).Normalize()
			s := lc.ComputeShade(cam.Rotate(fn))
			tri[0].Shade, tri[1].Shade, tri[2].Shade = s, s, s
		}
		RasterizeTriangle(fb, tri, tex, l.Color, lc)
	}
}
