package display

import (
	"context"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tauraamui/dualcam/pkg/composite"
	"github.com/tauraamui/dualcam/pkg/timing"
	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

type Settings struct {
	Title    string
	Windowed bool
	Width    int
	Height   int
}

// Window drives the compositor from the Ebitengine loop.
type Window struct {
	ctx        context.Context
	sett       Settings
	compositor *composite.Compositor
	probe      *timing.Probe
	surface    surface
}

func NewWindow(sett Settings, compositor *composite.Compositor, probe *timing.Probe) *Window {
	return &Window{ctx: context.Background(), sett: sett, compositor: compositor, probe: probe}
}

// Run blocks until the window is closed or escape is pressed. Must be
// called from the main goroutine.
func (w *Window) Run() error {
	return w.RunWithCancel(context.Background())
}

// RunWithCancel is Run that also closes the window once cancel is done.
func (w *Window) RunWithCancel(cancel context.Context) error {
	w.ctx = cancel
	ebiten.SetWindowTitle(w.sett.Title)
	if w.sett.Windowed {
		ebiten.SetWindowSize(w.sett.Width, w.sett.Height)
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	} else {
		ebiten.SetFullscreen(true)
	}
	return ebiten.RunGame(w)
}

// --- ebiten.Game interface ---

func (w *Window) Update() error {
	w.probe.Start()
	if w.ctx.Err() != nil {
		return ebiten.Termination
	}
	if ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsKeyPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	w.probe.StartIfIdle()
	w.surface.screen = screen
	w.surface.drawIndex = 0
	w.compositor.Tick(&w.surface)
	w.surface.screen = nil
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// surface is the GPU composite.Surface, only valid inside Window.Draw.
// Each draw call gets its own cached layer image.
type surface struct {
	screen    *ebiten.Image
	layers    []*ebiten.Image
	drawIndex int
	pixels    []byte
}

func (s *surface) Size() (int, int) {
	b := s.screen.Bounds()
	return b.Dx(), b.Dy()
}

// Clear resets the target to zero in every channel, masked draws are
// then accumulated with BlendLighter.
func (s *surface) Clear() {
	s.screen.Clear()
}

func (s *surface) Draw(call composite.DrawCall) error {
	tex := call.Uniforms.Texture
	if tex == nil {
		return xerror.New("draw call has no texture bound")
	}

	layer := s.layer(tex.Width, tex.Height)
	s.pixels = textureToRGBA(tex, s.pixels)
	layer.WritePixels(s.pixels)

	sw, sh := s.Size()
	s.screen.DrawImage(layer, drawOptions(call, tex.Width, tex.Height, sw, sh))
	return nil
}

// Present is a no-op, Ebitengine presents once Draw returns.
func (s *surface) Present() error { return nil }

func (s *surface) layer(tw, th int) *ebiten.Image {
	i := s.drawIndex
	s.drawIndex++
	for len(s.layers) <= i {
		s.layers = append(s.layers, nil)
	}
	l := s.layers[i]
	if l == nil || l.Bounds().Dx() != tw || l.Bounds().Dy() != th {
		if l != nil {
			l.Deallocate()
		}
		l = ebiten.NewImage(tw, th)
		s.layers[i] = l
	}
	return l
}

// textureToRGBA flips a bottom-up RGB texture back into the top-down RGBA
// layout WritePixels expects, reusing dst when it is large enough.
func textureToRGBA(tex *composite.Texture, dst []byte) []byte {
	n := tex.Width * tex.Height * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	stride := tex.Width * videoframe.BytesPerPixel
	for y := 0; y < tex.Height; y++ {
		src := tex.Pix[(tex.Height-1-y)*stride:]
		out := dst[y*tex.Width*4:]
		for x := 0; x < tex.Width; x++ {
			out[x*4] = src[x*3]
			out[x*4+1] = src[x*3+1]
			out[x*4+2] = src[x*3+2]
			out[x*4+3] = 0xFF
		}
	}
	return dst
}

// drawOptions stretches the layer over the screen, mirrors it per the
// call's transform and limits the draw to the masked channels.
func drawOptions(call composite.DrawCall, tw, th, sw, sh int) *ebiten.DrawImageOptions {
	mirrorX := call.Transform.FlipY != call.Transform.FlipX
	mirrorY := call.Transform.FlipY

	op := &ebiten.DrawImageOptions{}
	if mirrorX {
		op.GeoM.Scale(-1, 1)
		op.GeoM.Translate(float64(tw), 0)
	}
	if mirrorY {
		op.GeoM.Scale(1, -1)
		op.GeoM.Translate(0, float64(th))
	}
	op.GeoM.Scale(float64(sw)/float64(tw), float64(sh)/float64(th))

	op.ColorScale.Scale(channel(call.Mask.R), channel(call.Mask.G), channel(call.Mask.B), channel(call.Mask.A))
	op.Blend = ebiten.BlendLighter
	op.Filter = ebiten.FilterNearest
	return op
}

func channel(on bool) float32 {
	if on {
		return 1
	}
	return 0
}
