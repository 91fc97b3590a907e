package process_test

import (
	"context"
	"sync"

	"github.com/tauraamui/dualcam/pkg/camera"
	"github.com/tauraamui/dualcam/pkg/video/videobackend"
	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

type mockCameraConn struct {
	title   string
	format  videoframe.Format
	dev     *mockDevice
	mu      sync.Mutex
	claimed bool
}

func (m *mockCameraConn) UUID() string { return "test-" + m.title }
func (m *mockCameraConn) Title() string { return m.title }
func (m *mockCameraConn) Path() string { return m.dev.Path() }
func (m *mockCameraConn) Format() videoframe.Format { return m.format }
func (m *mockCameraConn) Params() videoframe.Params { return videoframe.Params{} }
func (m *mockCameraConn) Settings() camera.Settings { return camera.Settings{} }
func (m *mockCameraConn) Close() error { return m.dev.Close() }

func (m *mockCameraConn) Claim() (videobackend.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimed {
		return nil, xerror.New("already claimed")
	}
	m.claimed = true
	return m.dev, nil
}

func (m *mockCameraConn) wasClaimed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimed
}

type mockDevice struct {
	stream *scriptedStream
}

func (d *mockDevice) Path() string { return "/dev/null" }
func (d *mockDevice) SetFormat(videoframe.Format) error { return nil }
func (d *mockDevice) Format() (videoframe.Format, error) { return videoframe.Format{}, nil }
func (d *mockDevice) Params() (videoframe.Params, error) { return videoframe.Params{}, nil }
func (d *mockDevice) Stream(context.Context) (videobackend.Stream, error) { return d.stream, nil }
func (d *mockDevice) Close() error { return nil }

// scriptedStream hands out whatever the test pushes into buffers or errs,
// each push completes once the worker has taken it.
type scriptedStream struct {
	buffers chan []byte
	errs    chan error
	closed  chan struct{}
	once    sync.Once
}

func newScriptedStream() *scriptedStream {
	return &scriptedStream{
		buffers: make(chan []byte),
		errs:    make(chan error),
		closed:  make(chan struct{}),
	}
}

func (s *scriptedStream) Next() ([]byte, error) {
	select {
	case b := <-s.buffers:
		return b, nil
	case err := <-s.errs:
		return nil, err
	case <-s.closed:
		return nil, videobackend.ErrStreamClosed
	}
}

func (s *scriptedStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *scriptedStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func newMockCamera(title string, format videoframe.Format) *mockCameraConn {
	return &mockCameraConn{
		title:  title,
		format: format,
		dev:    &mockDevice{stream: newScriptedStream()},
	}
}
