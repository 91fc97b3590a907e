package composite

import (
	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

// Texture holds RGB texels with a bottom-left origin: row 0 is the last
// row of the source frame.
type Texture struct {
	Width, Height int
	Pix           []byte
}

// NewTexture builds a texture from a top-down row-major RGB payload,
// reversing the row order.
func NewTexture(payload []byte, format videoframe.Format) (*Texture, error) {
	if len(payload) != format.FrameSize() {
		return nil, xerror.Errorf("payload of %d bytes does not fit %s", len(payload), format)
	}
	w, h := int(format.Width), int(format.Height)
	stride := w * videoframe.BytesPerPixel
	pix := make([]byte, len(payload))
	for row := 0; row < h; row++ {
		src := payload[row*stride : (row+1)*stride]
		copy(pix[(h-1-row)*stride:], src)
	}
	return &Texture{Width: w, Height: h, Pix: pix}, nil
}

// At returns the texel at column x and row y counted from the bottom.
func (t *Texture) At(x, y int) (r, g, b byte) {
	i := (y*t.Width + x) * videoframe.BytesPerPixel
	return t.Pix[i], t.Pix[i+1], t.Pix[i+2]
}

// Sample is a nearest neighbour lookup clamped to the texture edges.
func (t *Texture) Sample(u, v float64) (r, g, b byte) {
	return t.At(clampIndex(u, t.Width), clampIndex(v, t.Height))
}

func clampIndex(c float64, n int) int {
	i := int(c * float64(n))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
