package viewer

import (
	"sync"

	"github.com/tauraamui/dualcam/pkg/composite"
	"github.com/tauraamui/dualcam/pkg/video/framestore"
	"github.com/tauraamui/dualcam/pkg/viewer/process"
)

// SetupProcesses gives every connected camera a frame store and a capture
// worker, and builds the compositor reading from those stores.
func (s *server) SetupProcesses() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var feeds []composite.Feed
	for i, cam := range s.cameras {
		store := framestore.New(cam.Format())
		proc := process.NewCaptureProcess(cam, store, s.metrics)
		proc.Setup()
		s.captureProcesses = append(s.captureProcesses, proc)
		feeds = append(feeds, s.newFeed(s.cameraIndexes[i], cam, store))
	}
	s.compositor = composite.New(s.probe, feeds...)
}

func (s *server) RunProcesses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, proc := range s.captureProcesses {
		proc.Start()
	}
}

func (s *server) shutdownProcesses() {
	s.mu.Lock()
	procs := s.captureProcesses
	s.mu.Unlock()

	wg := sync.WaitGroup{}
	wg.Add(len(procs))
	for _, proc := range procs {
		go func(wg *sync.WaitGroup, proc process.Process) {
			proc.Stop()
			proc.Wait()
			wg.Done()
		}(&wg, proc)
	}
	wg.Wait()
}
