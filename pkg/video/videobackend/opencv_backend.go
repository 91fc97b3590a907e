package videobackend

import (
	"context"
	"sync"

	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

type openCVBackend struct{}

func (b *openCVBackend) Open(cancel context.Context, path string) (Device, error) {
	return openWithCancel(cancel, func() (Device, error) {
		vc, err := openVideoCapture(path)
		if err != nil {
			return nil, xerror.Errorf("unable to open %s: %w", path, err)
		}
		vc.Set(gocv.VideoCaptureBufferSize, StreamBufferCount)
		return &openCVDevice{path: path, vc: vc}, nil
	})
}

var openVideoCapture = func(addr string) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCapture(addr)
}

var readFromVideoCapture = func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(mat)
	}
	return false
}

// openCVDevice lets OpenCV decode whatever the camera sends, so every
// frame it hands out is already RGB regardless of the requested fourcc.
type openCVDevice struct {
	path string
	mu   sync.Mutex
	vc   *gocv.VideoCapture
}

func (d *openCVDevice) Path() string { return d.path }

func (d *openCVDevice) SetFormat(format videoframe.Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.vc.IsOpened() {
		return xerror.Errorf("capture %s is not open", d.path)
	}
	d.vc.Set(gocv.VideoCaptureFOURCC, d.vc.ToCodec(format.Encoding.FourCC()))
	d.vc.Set(gocv.VideoCaptureFrameWidth, float64(format.Width))
	d.vc.Set(gocv.VideoCaptureFrameHeight, float64(format.Height))
	return nil
}

func (d *openCVDevice) Format() (videoframe.Format, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	format := videoframe.Format{
		Width:    uint32(d.vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:   uint32(d.vc.Get(gocv.VideoCaptureFrameHeight)),
		Encoding: videoframe.RawRGB,
	}
	if err := format.Validate(); err != nil {
		return videoframe.Format{}, xerror.Errorf("capture %s reports no geometry: %w", d.path, err)
	}
	return format, nil
}

func (d *openCVDevice) Params() (videoframe.Params, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return videoframe.Params{FPS: uint32(d.vc.Get(gocv.VideoCaptureFPS))}, nil
}

func (d *openCVDevice) Stream(ctx context.Context) (Stream, error) {
	return &openCVStream{ctx: ctx, dev: d, bgr: gocv.NewMat(), rgb: gocv.NewMat()}, nil
}

func (d *openCVDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vc.Close()
}

type openCVStream struct {
	ctx      context.Context
	dev      *openCVDevice
	mu       sync.Mutex
	isClosed bool
	bgr, rgb gocv.Mat
}

func (s *openCVStream) Next() ([]byte, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, xerror.Errorf("stream stopped: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil, ErrStreamClosed
	}

	s.dev.mu.Lock()
	ok := readFromVideoCapture(s.dev.vc, &s.bgr)
	s.dev.mu.Unlock()
	if !ok {
		return nil, xerror.Errorf("unable to read from %s: %w", s.dev.path, ErrStreamClosed)
	}
	if s.bgr.Empty() {
		return []byte{}, nil
	}

	gocv.CvtColor(s.bgr, &s.rgb, gocv.ColorBGRToRGB)
	return s.rgb.ToBytes(), nil
}

func (s *openCVStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isClosed {
		s.bgr.Close()
		s.rgb.Close()
		s.isClosed = true
	}
	return nil
}
