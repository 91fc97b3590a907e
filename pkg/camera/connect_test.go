package camera_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tauraamui/dualcam/pkg/camera"
	"github.com/tauraamui/dualcam/pkg/log"
	"github.com/tauraamui/dualcam/pkg/video/videobackend"
	"github.com/tauraamui/dualcam/pkg/video/videoframe"
)

// testDevice behaves like a V4L2 driver: unsupported requests are not
// errors, the driver silently picks something else.
type testDevice struct {
	path       string
	accepted   []videoframe.Encoding
	fallback   videoframe.Encoding
	override   *videoframe.Dimensions
	onSetError map[videoframe.Encoding]error
	current    videoframe.Format
	requested  []videoframe.Format
	closed     bool
}

func (d *testDevice) Path() string { return d.path }

func (d *testDevice) SetFormat(f videoframe.Format) error {
	d.requested = append(d.requested, f)
	if err, ok := d.onSetError[f.Encoding]; ok {
		return err
	}
	accepted := false
	for _, a := range d.accepted {
		if a == f.Encoding {
			accepted = true
		}
	}
	if !accepted {
		f.Encoding = d.fallback
	}
	if d.override != nil {
		f.Width, f.Height = uint32(d.override.W), uint32(d.override.H)
	}
	d.current = f
	return nil
}

func (d *testDevice) Format() (videoframe.Format, error) { return d.current, nil }

func (d *testDevice) Params() (videoframe.Params, error) { return videoframe.Params{FPS: 30}, nil }

func (d *testDevice) Stream(context.Context) (videobackend.Stream, error) {
	return nil, errors.New("not streamable")
}

func (d *testDevice) Close() error {
	d.closed = true
	return nil
}

type testBackend struct {
	dev         *testDevice
	onOpenError error
}

func (b testBackend) Open(context.Context, string) (videobackend.Device, error) {
	if b.onOpenError != nil {
		return nil, b.onOpenError
	}
	return b.dev, nil
}

func overloadInfoLog(overload func(string, ...interface{})) func() {
	logInfoRef := log.Info
	log.Info = overload
	return func() { log.Info = logInfoRef }
}

func TestNegotiateAcceptsDirectRGB(t *testing.T) {
	for _, dims := range []videoframe.Dimensions{{W: 1280, H: 720}, {W: 640, H: 480}, {W: 1, H: 1}, {W: 1920, H: 1080}} {
		t.Run(fmt.Sprintf("%dx%d", dims.W, dims.H), func(t *testing.T) {
			dev := &testDevice{path: "/dev/video0", accepted: []videoframe.Encoding{videoframe.RawRGB, videoframe.MotionJPEG}}
			format, err := camera.Negotiate(dev, uint32(dims.W), uint32(dims.H))
			require.NoError(t, err)
			assert.Equal(t, videoframe.Format{Width: uint32(dims.W), Height: uint32(dims.H), Encoding: videoframe.RawRGB}, format)
			assert.Len(t, dev.requested, 1, "must not fall back once RGB is accepted")
		})
	}
}

func TestNegotiateFallsBackToMJPEG(t *testing.T) {
	is := is.New(t)
	dev := &testDevice{
		path:     "/dev/video2",
		accepted: []videoframe.Encoding{videoframe.MotionJPEG},
		fallback: videoframe.Unknown,
	}
	format, err := camera.Negotiate(dev, 1280, 720)
	is.NoErr(err)
	is.Equal(format, videoframe.Format{Width: 1280, Height: 720, Encoding: videoframe.MotionJPEG})
	is.Equal(len(dev.requested), 2)
	is.Equal(dev.requested[0].Encoding, videoframe.RawRGB)
	is.Equal(dev.requested[1].Encoding, videoframe.MotionJPEG)
	is.Equal(dev.requested[1].Width, uint32(1280))
}

func TestNegotiateTreatsSetErrorAsRejection(t *testing.T) {
	is := is.New(t)
	dev := &testDevice{
		path:       "/dev/video2",
		accepted:   []videoframe.Encoding{videoframe.MotionJPEG},
		onSetError: map[videoframe.Encoding]error{videoframe.RawRGB: errors.New("invalid argument")},
	}
	format, err := camera.Negotiate(dev, 640, 480)
	is.NoErr(err)
	is.Equal(format.Encoding, videoframe.MotionJPEG)
}

func TestNegotiateFailsWhenNoEncodingIsAccepted(t *testing.T) {
	dev := &testDevice{path: "/dev/video4", fallback: videoframe.Unknown}
	format, err := camera.Negotiate(dev, 1280, 720)
	require.Error(t, err)
	assert.True(t, errors.Is(err, camera.ErrNoSupportedEncoding))
	assert.Equal(t, videoframe.Format{}, format)

	msg := err.Error()
	assert.True(t, strings.Contains(msg, "/dev/video4"), msg)
	assert.True(t, strings.Contains(msg, "1280x720 RGB3"), msg)
	assert.True(t, strings.Contains(msg, "1280x720 MJPG"), msg)
}

func TestNegotiateReportsDeviceGeometry(t *testing.T) {
	is := is.New(t)
	dev := &testDevice{
		path:     "/dev/video0",
		accepted: []videoframe.Encoding{videoframe.RawRGB},
		override: &videoframe.Dimensions{W: 640, H: 360},
	}
	format, err := camera.Negotiate(dev, 1280, 720)
	is.NoErr(err)
	is.Equal(format.Width, uint32(640))
	is.Equal(format.Height, uint32(360))
}

func TestNegotiateZeroTargetKeepsDeviceGeometry(t *testing.T) {
	is := is.New(t)
	dev := &testDevice{
		path:     "/dev/video0",
		accepted: []videoframe.Encoding{videoframe.RawRGB},
		current:  videoframe.Format{Width: 800, Height: 600, Encoding: videoframe.Unknown},
	}
	format, err := camera.Negotiate(dev, 0, 0)
	is.NoErr(err)
	is.Equal(format, videoframe.Format{Width: 800, Height: 600, Encoding: videoframe.RawRGB})
}

func TestConnectReturnsConnectionAndNoError(t *testing.T) {
	var infoLogs []string
	reset := overloadInfoLog(func(format string, a ...interface{}) {
		infoLogs = append(infoLogs, fmt.Sprintf(format, a...))
	})
	defer reset()

	dev := &testDevice{path: "/dev/video0", accepted: []videoframe.Encoding{videoframe.RawRGB}}
	conn, err := camera.Connect("camera1", "/dev/video0", camera.Settings{Width: 320, Height: 240, FlipY: true}, testBackend{dev: dev})
	require.NoError(t, err)
	require.NotNil(t, conn)

	assert.NotEmpty(t, conn.UUID())
	assert.Equal(t, "camera1", conn.Title())
	assert.Equal(t, "/dev/video0", conn.Path())
	assert.Equal(t, videoframe.Format{Width: 320, Height: 240, Encoding: videoframe.RawRGB}, conn.Format())
	assert.Equal(t, uint32(30), conn.Params().FPS)
	assert.True(t, conn.Settings().FlipY)
	assert.Equal(t, []string{"Camera [camera1] device: /dev/video0, format: 320x240 RGB3, fps: 30"}, infoLogs)

	require.NoError(t, conn.Close())
	assert.True(t, dev.closed)
}

func TestConnectReturnsNoConnectionAndErrorOnOpenFailure(t *testing.T) {
	conn, err := camera.Connect("camera2", "/dev/video2", camera.Settings{}, testBackend{
		onOpenError: errors.New("no such device"),
	})
	assert.EqualError(t, err, "Unable to connect to camera [camera2]: no such device")
	assert.Nil(t, conn)
}

func TestConnectClosesDeviceOnNegotiationFailure(t *testing.T) {
	is := is.New(t)
	dev := &testDevice{path: "/dev/video2"}
	conn, err := camera.Connect("camera2", "/dev/video2", camera.Settings{Width: 64, Height: 48}, testBackend{dev: dev})
	is.True(conn == nil)
	is.True(errors.Is(err, camera.ErrNoSupportedEncoding))
	is.True(dev.closed)
}

func TestClaimHandsDeviceOutOnce(t *testing.T) {
	is := is.New(t)
	dev := &testDevice{path: "/dev/video0", accepted: []videoframe.Encoding{videoframe.RawRGB}}
	conn, err := camera.Connect("camera1", "/dev/video0", camera.Settings{Width: 64, Height: 48}, testBackend{dev: dev})
	is.NoErr(err)

	claimed, err := conn.Claim()
	is.NoErr(err)
	is.Equal(claimed, dev)

	again, err := conn.Claim()
	is.True(again == nil)
	is.True(err != nil)
}

func TestConnectWithMockBackend(t *testing.T) {
	is := is.New(t)
	conn, err := camera.ConnectWithCancel(
		context.Background(), "camera2", "/dev/video2", camera.Settings{Width: 64, Height: 48},
		videobackend.MockWithEncodings(videoframe.MotionJPEG),
	)
	is.NoErr(err)
	defer conn.Close()
	is.Equal(conn.Format(), videoframe.Format{Width: 64, Height: 48, Encoding: videoframe.MotionJPEG})
}
