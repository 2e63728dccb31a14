package preview

import "math"

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	ZBuf   []float64 // depth per pixel, len = W*H, initialized to -inf
}

// NewFrameBuffer allocates a zeroed color buffer and -inf z-buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	n := w * h
	zbuf := make([]float64, n)
	for i := range zbuf {
		zbuf[i] = math.Inf(-1)
	}
	return &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, n*4),
		ZBuf:   zbuf,
	}
}

// clip returns the pixel box covering [x0,x1]×[y0,y1], clamped to the
// buffer. ok is false when nothing is left.
func (fb *FrameBuffer) clip(x0, x1, y0, y1 float64) (minX, maxX, minY, maxY int, ok bool) {
	minX = max(int(math.Floor(x0)), 0)
	maxX = min(int(math.Ceil(x1)), fb.Width-1)
	minY = max(int(math.Floor(y0)), 0)
	maxY = min(int(math.Ceil(y1)), fb.Height-1)
	return minX, maxX, minY, maxY, minX <= maxX && minY <= maxY
}
