package videobackend

import (
	"context"
	"errors"

	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

// StreamBufferCount is the size of the capture queue every backend streams
// through. It is fixed, not tunable at runtime.
const StreamBufferCount = 2

var ErrStreamClosed = errors.New("device stream closed")

// Device is an open capture device. SetFormat only requests a format,
// callers must read back Format to learn what the device actually chose.
type Device interface {
	Path() string
	SetFormat(videoframe.Format) error
	Format() (videoframe.Format, error)
	Params() (videoframe.Params, error)
	Stream(context.Context) (Stream, error)
	Close() error
}

// Stream yields completed capture buffers. Next blocks until the device
// signals a buffer is ready, the returned slice is only valid until the
// following call.
type Stream interface {
	Next() ([]byte, error)
	Close() error
}

type Backend interface {
	Open(context.Context, string) (Device, error)
}

func Default() Backend {
	return V4L2()
}

func V4L2() Backend {
	return &v4l2Backend{}
}

func OpenCV() Backend {
	return &openCVBackend{}
}

func Mock() Backend {
	return &mockVideoBackend{}
}

// MockWithEncodings returns a mock backend whose devices only accept the
// given encodings, any other request is answered with the first of them.
func MockWithEncodings(accepted ...videoframe.Encoding) Backend {
	return &mockVideoBackend{accepted: accepted}
}

func Resolve(t string) Backend {
	switch t {
	case "mock":
		return Mock()
	case "opencv":
		return OpenCV()
	default:
		return Default()
	}
}

// openResult carries the outcome of a blocking open back to the caller
// which might have given up on it already.
type openResult struct {
	dev Device
	err error
}

func openWithCancel(cancel context.Context, open func() (Device, error)) (Device, error) {
	result := make(chan openResult, 1)
	go func() {
		dev, err := open()
		result <- openResult{dev: dev, err: err}
	}()
	select {
	case r := <-result:
		return r.dev, r.err
	case <-cancel.Done():
		go func() {
			if r := <-result; r.dev != nil {
				r.dev.Close()
			}
		}()
		return nil, xerror.Errorf("device open cancelled: %w", cancel.Err())
	}
}
