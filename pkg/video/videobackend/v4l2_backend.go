package videobackend

import (
	"context"
	"sync"

	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"
)

type v4l2Backend struct{}

func (b *v4l2Backend) Open(cancel context.Context, path string) (Device, error) {
	return openWithCancel(cancel, func() (Device, error) {
		dev, err := openV4L2Device(path)
		if err != nil {
			return nil, xerror.Errorf("unable to open %s: %w", path, err)
		}
		return &v4l2Device{path: path, dev: dev}, nil
	})
}

var openV4L2Device = func(path string) (*device.Device, error) {
	return device.Open(path, device.WithBufferSize(StreamBufferCount))
}

var pixelFormats = map[videoframe.Encoding]v4l2.FourCCType{
	videoframe.RawRGB:     v4l2.PixelFmtRGB24,
	videoframe.MotionJPEG: v4l2.PixelFmtMJPEG,
}

func encodingFromPixelFormat(pf v4l2.FourCCType) videoframe.Encoding {
	for e, f := range pixelFormats {
		if f == pf {
			return e
		}
	}
	return videoframe.Unknown
}

type v4l2Device struct {
	path string
	mu   sync.Mutex
	dev  *device.Device
}

func (d *v4l2Device) Path() string { return d.path }

func (d *v4l2Device) SetFormat(format videoframe.Format) error {
	pf, ok := pixelFormats[format.Encoding]
	if !ok {
		return xerror.Errorf("no V4L2 pixel format for %s", format.Encoding)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev.SetPixFormat(v4l2.PixFormat{
		Width:       format.Width,
		Height:      format.Height,
		PixelFormat: pf,
		Field:       v4l2.FieldAny,
	})
}

func (d *v4l2Device) Format() (videoframe.Format, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pix, err := d.dev.GetPixFormat()
	if err != nil {
		return videoframe.Format{}, xerror.Errorf("unable to read format of %s: %w", d.path, err)
	}
	return videoframe.Format{
		Width:    pix.Width,
		Height:   pix.Height,
		Encoding: encodingFromPixelFormat(pix.PixelFormat),
	}, nil
}

func (d *v4l2Device) Params() (videoframe.Params, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fps, err := d.dev.GetFrameRate()
	if err != nil {
		return videoframe.Params{}, xerror.Errorf("unable to read frame rate of %s: %w", d.path, err)
	}
	return videoframe.Params{FPS: fps}, nil
}

func (d *v4l2Device) Stream(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.dev.Start(ctx); err != nil {
		return nil, xerror.Errorf("unable to start streaming from %s: %w", d.path, err)
	}
	return &v4l2Stream{ctx: ctx, dev: d.dev, output: d.dev.GetOutput()}, nil
}

func (d *v4l2Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev.Close()
}

type v4l2Stream struct {
	ctx    context.Context
	dev    *device.Device
	output <-chan []byte
	once   sync.Once
}

// Next returns an empty buffer when the driver flagged the frame as
// errored, decoders reject it and the frame is skipped.
func (s *v4l2Stream) Next() ([]byte, error) {
	select {
	case buf, ok := <-s.output:
		if !ok {
			return nil, ErrStreamClosed
		}
		return buf, nil
	case <-s.ctx.Done():
		return nil, xerror.Errorf("stream stopped: %w", s.ctx.Err())
	}
}

func (s *v4l2Stream) Close() error {
	var err error
	s.once.Do(func() { err = s.dev.Stop() })
	return err
}
