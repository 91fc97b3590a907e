package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/tauraamui/dualcam/pkg/camera"
	"github.com/tauraamui/dualcam/pkg/composite"
	"github.com/tauraamui/dualcam/pkg/configdef"
	"github.com/tauraamui/dualcam/pkg/log"
	"github.com/tauraamui/dualcam/pkg/metrics"
	"github.com/tauraamui/dualcam/pkg/timing"
	"github.com/tauraamui/dualcam/pkg/video/framestore"
	"github.com/tauraamui/dualcam/pkg/video/videobackend"
	"github.com/tauraamui/dualcam/pkg/viewer/process"
)

type Server interface {
	Connect() []error
	ConnectWithCancel(context.Context) []error
	Cameras() []camera.Connection
	SetupProcesses()
	RunProcesses()
	Compositor() *composite.Compositor
	ApplyConfig(configdef.Values)
	Shutdown() chan interface{}
}

// masks are handed out by configured camera position, not by how many
// cameras connected before.
var masks = []composite.Mask{composite.Camera1Mask, composite.Camera2Mask}

func NewServer(config configdef.Values, backend videobackend.Backend, m *metrics.Metrics, probe *timing.Probe) Server {
	config.Cameras = append([]configdef.Camera{}, config.Cameras...)
	return &server{
		config:       config,
		videoBackend: backend,
		metrics:      m,
		probe:        probe,
		shutdownDone: make(chan interface{}),
	}
}

type server struct {
	shutdownDone     chan interface{}
	shutdownOnce     sync.Once
	config           configdef.Values
	videoBackend     videobackend.Backend
	metrics          *metrics.Metrics
	probe            *timing.Probe
	mu               sync.Mutex
	cameras          []camera.Connection
	cameraIndexes    []int
	captureProcesses []process.Process
	compositor       *composite.Compositor
}

func (s *server) Connect() []error {
	return s.connect(context.Background())
}

func (s *server) ConnectWithCancel(cancel context.Context) []error {
	return s.connect(cancel)
}

func (s *server) connect(cancel context.Context) []error {
	var errs []error

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cam := range s.config.Cameras {
		select {
		case <-cancel.Done():
			return errs
		default:
			title := cameraTitle(i)
			settings := camera.Settings{
				Width:  uint32(s.config.Width),
				Height: uint32(s.config.Height),
				FlipY:  cam.FlipY,
			}
			conn, err := connectToCamera(cancel, title, cam.Device, settings, s.videoBackend)
			if err != nil {
				errs = append(errs, err)
			}

			if conn != nil {
				log.Info("Connected successfully to camera: [%s]", title)
				s.cameras = append(s.cameras, conn)
				s.cameraIndexes = append(s.cameraIndexes, i)
			}
		}
	}
	return errs
}

func cameraTitle(i int) string {
	return fmt.Sprintf("camera%d", i+1)
}

func connectToCamera(ctx context.Context, title, addr string, sett camera.Settings, backend videobackend.Backend) (camera.Connection, error) {
	log.Info("Connecting to camera: [%s]...", title)
	return camera.ConnectWithCancel(ctx, title, addr, sett, backend)
}

func (s *server) Cameras() []camera.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]camera.Connection{}, s.cameras...)
}

func (s *server) Compositor() *composite.Compositor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compositor
}

// ApplyConfig pushes the flip settings of config onto the running
// compositor. Everything else needs a restart.
func (s *server) ApplyConfig(config configdef.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.FlipX = config.FlipX
	for i := range s.config.Cameras {
		if i < len(config.Cameras) {
			s.config.Cameras[i].FlipY = config.Cameras[i].FlipY
		}
	}
	if s.compositor != nil {
		for feed, i := range s.cameraIndexes {
			s.compositor.SetTransform(feed, s.transform(i))
		}
	}
	log.Info("Applied flip settings: flip x: %t", config.FlipX)
}

func (s *server) transform(i int) composite.Transform {
	return composite.Transform{
		FlipY: s.config.Cameras[i].FlipY,
		FlipX: s.config.FlipX,
	}
}

func (s *server) newFeed(i int, cam camera.Connection, store *framestore.Store) composite.Feed {
	return composite.Feed{
		Title:     cam.Title(),
		Store:     store,
		Transform: s.transform(i),
		Mask:      masks[i%len(masks)],
	}
}

func (s *server) shutdown() {
	s.shutdownProcesses()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cam := range s.cameras {
		log.Warn("Closing camera connection: [%s]...", cam.Title())
		if err := cam.Close(); err != nil {
			log.Error("Unable to close camera [%s]: %v", cam.Title(), err)
		}
	}
	close(s.shutdownDone)
}

func (s *server) Shutdown() chan interface{} {
	s.shutdownOnce.Do(s.shutdown)
	return s.shutdownDone
}
