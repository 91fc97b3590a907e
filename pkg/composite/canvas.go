package composite

import (
	"image"

	"github.com/tauraamui/xerror"
)

// Canvas is a software Surface over an RGBA image. It rasterizes draw calls
// the same way the GPU pipeline does and is used headless.
type Canvas struct {
	back  *image.RGBA
	front *image.RGBA
}

func NewCanvas(w, h int) *Canvas {
	return &Canvas{
		back:  image.NewRGBA(image.Rect(0, 0, w, h)),
		front: image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

func (c *Canvas) Size() (w, h int) {
	b := c.back.Bounds()
	return b.Dx(), b.Dy()
}

func (c *Canvas) Clear() {
	for i := range c.back.Pix {
		c.back.Pix[i] = 0
	}
}

func (c *Canvas) Draw(call DrawCall) error {
	tex := call.Uniforms.Texture
	if tex == nil {
		return xerror.New("draw call has no texture bound")
	}

	w, h := c.Size()
	covered := make([]bool, w*h)
	for _, tri := range call.Quad.Triangles() {
		rasterize(tri, call.Uniforms.Matrix, w, h, func(x, y int, u, v float64) {
			if covered[y*w+x] {
				return
			}
			covered[y*w+x] = true
			r, g, b := tex.Sample(call.Transform.Apply(u, v))
			c.blend(x, y, [4]byte{r, g, b, 255}, call.Mask)
		})
	}
	return nil
}

// blend is standard source-over alpha blending restricted to the
// channels the mask lets through.
func (c *Canvas) blend(x, y int, src [4]byte, mask Mask) {
	i := c.back.PixOffset(x, y)
	dst := c.back.Pix[i : i+4]
	a := uint32(src[3])
	write := [4]bool{mask.R, mask.G, mask.B, mask.A}
	for ch := 0; ch < 4; ch++ {
		if !write[ch] {
			continue
		}
		dst[ch] = byte((uint32(src[ch])*a + uint32(dst[ch])*(255-a) + 127) / 255)
	}
}

// Present publishes the back buffer.
func (c *Canvas) Present() error {
	copy(c.front.Pix, c.back.Pix)
	return nil
}

// Image returns the last presented frame.
func (c *Canvas) Image() *image.RGBA {
	return c.front
}

// rasterize calls fragment for every pixel centre inside tri with the
// interpolated texture coordinates.
func rasterize(tri [3]Vertex, m Matrix, w, h int, fragment func(x, y int, u, v float64)) {
	var p [3][2]float64
	for i, vert := range tri {
		x, y := m.apply(vert.Position[0], vert.Position[1])
		p[i] = [2]float64{float64(x), float64(y)}
	}
	area := edge(p[0], p[1], p[2])
	if area == 0 {
		return
	}

	const eps = 1e-9
	for py := 0; py < h; py++ {
		ndcY := 1 - (float64(py)+0.5)/float64(h)*2
		for px := 0; px < w; px++ {
			ndc := [2]float64{(float64(px)+0.5)/float64(w)*2 - 1, ndcY}
			w0 := edge(p[1], p[2], ndc) / area
			w1 := edge(p[2], p[0], ndc) / area
			w2 := edge(p[0], p[1], ndc) / area
			if w0 < -eps || w1 < -eps || w2 < -eps {
				continue
			}
			u := w0*float64(tri[0].TexCoord[0]) + w1*float64(tri[1].TexCoord[0]) + w2*float64(tri[2].TexCoord[0])
			v := w0*float64(tri[0].TexCoord[1]) + w1*float64(tri[1].TexCoord[1]) + w2*float64(tri[2].TexCoord[1])
			fragment(px, py, u, v)
		}
	}
}

func edge(a, b, p [2]float64) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}
