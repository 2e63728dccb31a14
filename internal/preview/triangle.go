package preview

import (
	"image"
	"image/color"
	"math"
)

// Vertex is a projected vertex: screen position, view depth, lighting and
// texture coordinates.
type Vertex struct {
	X, Y, Z float64
	Shade   float64
	U, V    float64
}

// RasterizeTriangle fills one triangle with Gouraud shading, z-buffer,
// sRGB color space and ACES tone mapping. With a nil tex the triangle is
// drawn in base.
//
// This is the hot path; the pixel loop does not allocate.
func RasterizeTriangle(fb *FrameBuffer, tri [3]Vertex, tex *image.NRGBA, base color.NRGBA, lc *LightConfig) {
	a, b, c := tri[0], tri[1], tri[2]

	minX, maxX, minY, maxY, ok := fb.clip(
		math.Min(math.Min(a.X, b.X), c.X), math.Max(math.Max(a.X, b.X), c.X),
		math.Min(math.Min(a.Y, b.Y), c.Y), math.Max(math.Max(a.Y, b.Y), c.Y),
	)
	if !ok {
		return
	}

	// Barycentric setup
	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := b.Y - c.Y
	dx21 := c.X - b.X
	dy20 := c.Y - a.Y
	dx02 := a.X - c.X

	exposure := lc.Exposure
	invGamma := lc.InvGamma

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - c.Y
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - c.X
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.Z + w1*b.Z + w2*c.Z
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			cr, cg, cb, ca := base.R, base.G, base.B, base.A
			if tex != nil {
				u := w0*a.U + w1*b.U + w2*c.U
				v := w0*a.V + w1*b.V + w2*c.V
				cr, cg, cb, ca = SampleTexture(tex, u, v)
			}

			// Skip transparent texels
			if ca < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			shade := (w0*a.Shade + w1*b.Shade + w2*c.Shade) * exposure

			tr := ACESTonemap(srgbToLinear[cr] * shade)
			tg := ACESTonemap(srgbToLinear[cg] * shade)
			tb := ACESTonemap(srgbToLinear[cb] * shade)

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = clamp255(math.Pow(tr, invGamma) * 255)
			fb.Color[pxIdx+1] = clamp255(math.Pow(tg, invGamma) * 255)
			fb.Color[pxIdx+2] = clamp255(math.Pow(tb, invGamma) * 255)
			fb.Color[pxIdx+3] = ca
		}
	}
}

// DrawMarker paints an unlit disc at (x, y). Pixels where the surface is
// closer than z-bias stay hidden.
func DrawMarker(fb *FrameBuffer, x, y, z, radius, bias float64, col color.NRGBA) {
	minX, maxX, minY, maxY, ok := fb.clip(x-radius, x+radius, y-radius, y+radius)
	if !ok {
		return
	}
	r2 := radius * radius
	for sy := minY; sy <= maxY; sy++ {
		dy := float64(sy) - y
		for sx := minX; sx <= maxX; sx++ {
			dx := float64(sx) - x
			if dx*dx+dy*dy > r2 {
				continue
			}
			i := sy*fb.Width + sx
			if z+bias < fb.ZBuf[i] {
				continue
			}
			p := i * 4
			fb.Color[p] = col.R
			fb.Color[p+1] = col.G
			fb.Color[p+2] = col.B
			fb.Color[p+3] = col.A
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
