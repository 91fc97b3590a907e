package viewer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tauraamui/dualcam/pkg/composite"
	"github.com/tauraamui/dualcam/pkg/configdef"
	"github.com/tauraamui/dualcam/pkg/metrics"
	"github.com/tauraamui/dualcam/pkg/video/videobackend"
	"github.com/tauraamui/dualcam/pkg/viewer"
)

var errNoSuchDevice = errors.New("no such device")

// unpluggedBackend fails to open one path and delegates the rest to the
// mock backend.
type unpluggedBackend struct {
	unplugged string
	backend   videobackend.Backend
}

func (b unpluggedBackend) Open(ctx context.Context, path string) (videobackend.Device, error) {
	if path == b.unplugged {
		return nil, errNoSuchDevice
	}
	return b.backend.Open(ctx, path)
}

func testConfig() configdef.Values {
	return configdef.Values{
		Backend: "mock",
		Width:   32,
		Height:  24,
		Cameras: []configdef.Camera{
			{Device: "/dev/video0", FlipY: true},
			{Device: "/dev/video2"},
		},
	}
}

type ServerTestSuite struct {
	suite.Suite
	mu        sync.Mutex
	infoLogs  []string
	resetLogs []func()
}

func (suite *ServerTestSuite) SetupTest() {
	suite.infoLogs = nil
	capture := func(format string, a ...interface{}) {
		suite.mu.Lock()
		defer suite.mu.Unlock()
		suite.infoLogs = append(suite.infoLogs, fmt.Sprintf(format, a...))
	}
	noop := func(string, ...interface{}) {}
	suite.resetLogs = []func(){
		overloadInfoLog(capture),
		overloadWarnLog(noop),
		overloadDebugLog(noop),
	}
}

func (suite *ServerTestSuite) TearDownTest() {
	for _, reset := range suite.resetLogs {
		reset()
	}
}

func (suite *ServerTestSuite) loggedInfo() []string {
	suite.mu.Lock()
	defer suite.mu.Unlock()
	return append([]string{}, suite.infoLogs...)
}

func (suite *ServerTestSuite) TestConnectNegotiatesBothCameras() {
	s := viewer.NewServer(testConfig(), videobackend.Mock(), nil, nil)
	defer s.Shutdown()

	require.Empty(suite.T(), s.Connect())
	cams := s.Cameras()
	require.Len(suite.T(), cams, 2)
	assert.Equal(suite.T(), "camera1", cams[0].Title())
	assert.Equal(suite.T(), "camera2", cams[1].Title())
	assert.Equal(suite.T(), "32x24 RGB3", cams[0].Format().String())
	assert.True(suite.T(), cams[0].Settings().FlipY)
	assert.False(suite.T(), cams[1].Settings().FlipY)

	assert.Contains(suite.T(), suite.loggedInfo(), "Connected successfully to camera: [camera2]")
}

func (suite *ServerTestSuite) TestConnectReportsUnpluggedCamera() {
	s := viewer.NewServer(testConfig(), unpluggedBackend{
		unplugged: "/dev/video2", backend: videobackend.Mock(),
	}, nil, nil)
	defer s.Shutdown()

	errs := s.Connect()
	require.Len(suite.T(), errs, 1)
	assert.True(suite.T(), errors.Is(errs[0], errNoSuchDevice))
	assert.Contains(suite.T(), errs[0].Error(), "camera2")
	assert.Len(suite.T(), s.Cameras(), 1)
}

func (suite *ServerTestSuite) TestConnectWithCancelledContextConnectsNothing() {
	s := viewer.NewServer(testConfig(), videobackend.Mock(), nil, nil)
	defer s.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(suite.T(), s.ConnectWithCancel(ctx))
	assert.Empty(suite.T(), s.Cameras())
}

func (suite *ServerTestSuite) TestRunningProcessesFeedTheCompositor() {
	m := metrics.New()
	s := viewer.NewServer(testConfig(), videobackend.Mock(), m, nil)
	require.Empty(suite.T(), s.Connect())

	assert.Nil(suite.T(), s.Compositor())
	s.SetupProcesses()
	comp := s.Compositor()
	require.NotNil(suite.T(), comp)

	feeds := comp.Feeds()
	require.Len(suite.T(), feeds, 2)
	assert.Equal(suite.T(), composite.Camera1Mask, feeds[0].Mask)
	assert.Equal(suite.T(), composite.Camera2Mask, feeds[1].Mask)
	assert.Equal(suite.T(), composite.Transform{FlipY: true}, feeds[0].Transform)
	assert.Equal(suite.T(), composite.Transform{}, feeds[1].Transform)

	s.RunProcesses()
	canvas := composite.NewCanvas(32, 24)
	require.Eventually(suite.T(), func() bool {
		return comp.Tick(canvas) == 2
	}, 5*time.Second, 10*time.Millisecond)

	select {
	case <-s.Shutdown():
	case <-time.After(5 * time.Second):
		suite.T().Fatal("shutdown did not complete")
	}
	assert.Greater(suite.T(), feeds[0].Store.Published(), uint64(0))
}

func (suite *ServerTestSuite) TestApplyConfigUpdatesFlips() {
	s := viewer.NewServer(testConfig(), videobackend.Mock(), nil, nil)
	defer s.Shutdown()
	require.Empty(suite.T(), s.Connect())
	s.SetupProcesses()

	updated := testConfig()
	updated.FlipX = true
	updated.Cameras[0].FlipY = false
	updated.Cameras[1].FlipY = true
	s.ApplyConfig(updated)

	feeds := s.Compositor().Feeds()
	assert.Equal(suite.T(), composite.Transform{FlipX: true}, feeds[0].Transform)
	assert.Equal(suite.T(), composite.Transform{FlipY: true, FlipX: true}, feeds[1].Transform)
}

func (suite *ServerTestSuite) TestFeedsKeepConfiguredPositionWhenCameraOneIsMissing() {
	s := viewer.NewServer(testConfig(), unpluggedBackend{
		unplugged: "/dev/video0", backend: videobackend.Mock(),
	}, nil, nil)
	defer s.Shutdown()

	require.Len(suite.T(), s.Connect(), 1)
	s.SetupProcesses()

	feeds := s.Compositor().Feeds()
	require.Len(suite.T(), feeds, 1)
	assert.Equal(suite.T(), "camera2", feeds[0].Title)
	assert.Equal(suite.T(), composite.Camera2Mask, feeds[0].Mask)
	assert.Equal(suite.T(), composite.Transform{}, feeds[0].Transform)

	updated := testConfig()
	updated.Cameras[1].FlipY = true
	s.ApplyConfig(updated)
	assert.Equal(suite.T(), composite.Transform{FlipY: true}, s.Compositor().Feeds()[0].Transform)
}

func (suite *ServerTestSuite) TestShutdownIsIdempotent() {
	s := viewer.NewServer(testConfig(), videobackend.Mock(), nil, nil)
	require.Empty(suite.T(), s.Connect())
	<-s.Shutdown()
	<-s.Shutdown()
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, &ServerTestSuite{})
}
