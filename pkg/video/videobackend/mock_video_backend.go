package videobackend

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/tauraamui/dualcam/pkg/video/videodecode"
	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const mockFPS = 30

var mockDefaultFormat = videoframe.Format{Width: 640, Height: 480, Encoding: videoframe.RawRGB}

type mockVideoBackend struct {
	accepted []videoframe.Encoding
}

func (b *mockVideoBackend) Open(cancel context.Context, path string) (Device, error) {
	if err := cancel.Err(); err != nil {
		return nil, xerror.Errorf("device open cancelled: %w", err)
	}
	accepted := b.accepted
	if len(accepted) == 0 {
		accepted = []videoframe.Encoding{videoframe.RawRGB, videoframe.MotionJPEG}
	}
	format := mockDefaultFormat
	format.Encoding = accepted[0]
	return &mockVideoDevice{path: path, accepted: accepted, format: format}, nil
}

// mockVideoDevice renders a test card showing its own path and the
// current time, encoded in whichever format was negotiated.
type mockVideoDevice struct {
	path     string
	accepted []videoframe.Encoding
	mu       sync.Mutex
	format   videoframe.Format
	isClosed bool

	baseFrameCanvas *image.RGBA
}

func (d *mockVideoDevice) Path() string { return d.path }

func (d *mockVideoDevice) SetFormat(format videoframe.Format) error {
	if err := format.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isClosed {
		return xerror.Errorf("mock device %s is closed", d.path)
	}
	if !d.accepts(format.Encoding) {
		format.Encoding = d.accepted[0]
	}
	if format.Width != d.format.Width || format.Height != d.format.Height {
		d.baseFrameCanvas = nil
	}
	d.format = format
	return nil
}

func (d *mockVideoDevice) accepts(e videoframe.Encoding) bool {
	for _, a := range d.accepted {
		if a == e {
			return true
		}
	}
	return false
}

func (d *mockVideoDevice) Format() (videoframe.Format, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.format, nil
}

func (d *mockVideoDevice) Params() (videoframe.Params, error) {
	return videoframe.Params{FPS: mockFPS}, nil
}

func (d *mockVideoDevice) Stream(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isClosed {
		return nil, xerror.Errorf("mock device %s is closed", d.path)
	}
	return &mockVideoStream{
		ctx:    ctx,
		dev:    d,
		ticker: time.NewTicker(time.Second / mockFPS),
		done:   make(chan struct{}),
	}, nil
}

func (d *mockVideoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.isClosed = true
	d.baseFrameCanvas = nil
	return nil
}

func (d *mockVideoDevice) render() ([]byte, error) {
	d.mu.Lock()
	format := d.format
	if d.baseFrameCanvas == nil {
		d.baseFrameCanvas = renderBaseFrameCanvas(int(format.Width), int(format.Height))
	}
	base := d.baseFrameCanvas
	d.mu.Unlock()

	img, err := drawTextLayerOntoBaseFrameClone(base, d.path)
	if err != nil {
		return nil, err
	}

	switch format.Encoding {
	case videoframe.RawRGB:
		return videodecode.ToRGB(img), nil
	case videoframe.MotionJPEG:
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
			return nil, xerror.Errorf("unable to encode mock frame: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, xerror.Errorf("mock device cannot produce %s", format.Encoding)
	}
}

type mockVideoStream struct {
	ctx    context.Context
	dev    *mockVideoDevice
	ticker *time.Ticker
	once   sync.Once
	done   chan struct{}
}

func (s *mockVideoStream) Next() ([]byte, error) {
	select {
	case <-s.ticker.C:
		return s.dev.render()
	case <-s.done:
		return nil, ErrStreamClosed
	case <-s.ctx.Done():
		return nil, xerror.Errorf("stream stopped: %w", s.ctx.Err())
	}
}

func (s *mockVideoStream) Close() error {
	s.once.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
	return nil
}

func drawTextLayerOntoBaseFrameClone(base image.Image, title string) (*image.RGBA, error) {
	baseClone := cloneImage(base)
	h := baseClone.Bounds().Dy()
	fontSize := float64(h) / 10

	if err := drawText(baseClone, 5, h/3, fontSize, title); err != nil {
		return nil, xerror.Errorf("unable to draw text onto mock frame: %w", err)
	}
	if err := drawText(baseClone, 5, 2*h/3, fontSize, time.Now().Format("15:04:05.000")); err != nil {
		return nil, xerror.Errorf("unable to draw text onto mock frame: %w", err)
	}
	return baseClone, nil
}

// renderBaseFrameCanvas draws three overlapping primary colored circles,
// which makes channel masking obvious once two feeds are composited.
func renderBaseFrameCanvas(w, h int) *image.RGBA {
	var hw, hh float64 = float64(w) / 2, float64(h) / 2
	r := float64(h) / 4
	radius := float64(h) * 3 / 8
	θ := 2 * math.Pi / 3
	cr := &circle{hw - r*math.Sin(0), hh - r*math.Cos(0), radius}
	cg := &circle{hw - r*math.Sin(θ), hh - r*math.Cos(θ), radius}
	cb := &circle{hw - r*math.Sin(-θ), hh - r*math.Cos(-θ), radius}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.SetRGBA(x, y, color.RGBA{
				cr.Brightness(float64(x), float64(y)),
				cg.Brightness(float64(x), float64(y)),
				cb.Brightness(float64(x), float64(y)),
				255,
			})
		}
	}
	return img
}

func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

var (
	fontOnce  sync.Once
	fontFace  *truetype.Font
	fontError error
)

func parsedFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontFace, fontError = freetype.ParseFont(goregular.TTF)
	})
	return fontFace, fontError
}

func drawText(canvas *image.RGBA, x, y int, size float64, text string) error {
	f, err := parsedFont()
	if err != nil {
		return err
	}
	fontDrawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(f, &truetype.Options{
			Size:    size,
			Hinting: font.HintingFull,
		}),
	}
	fontDrawer.Dot = fixed.Point26_6{
		X: fixed.I(x),
		Y: fixed.I(y),
	}
	fontDrawer.DrawString(text)
	return nil
}

type circle struct {
	X, Y, R float64
}

func (c *circle) Brightness(x, y float64) uint8 {
	var dx, dy float64 = c.X - x, c.Y - y
	d := math.Sqrt(dx*dx+dy*dy) / c.R
	if d > 1 {
		return 0
	}
	return 255
}
