package preview

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample shrinks a supersampled render by factor on each axis. The
// scaler works on premultiplied colour, so transparent background pixels do
// not bleed a dark fringe into the mesh silhouette.
func Downsample(img *image.NRGBA, factor int) *image.NRGBA {
	b := img.Bounds()
	if factor <= 1 || b.Dx() < factor || b.Dy() < factor {
		return img
	}
	rect := image.Rect(0, 0, b.Dx()/factor, b.Dy()/factor)

	// CatmullRom approximates Lanczos
	premul := image.NewRGBA(rect)
	draw.CatmullRom.Scale(premul, rect, img, b, draw.Src, nil)

	out := image.NewNRGBA(rect)
	draw.Draw(out, rect, premul, image.Point{}, draw.Src)
	return out
}
