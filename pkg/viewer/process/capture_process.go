package process

import (
	"context"
	"errors"
	"fmt"

	"github.com/tauraamui/dualcam/pkg/camera"
	"github.com/tauraamui/dualcam/pkg/log"
	"github.com/tauraamui/dualcam/pkg/metrics"
	"github.com/tauraamui/dualcam/pkg/video/framestore"
	"github.com/tauraamui/dualcam/pkg/video/videodecode"
)

// NewCaptureProcess keeps store current with the latest decoded frame from
// cam. The worker claims the camera's device when started and exits on
// Stop, on a stream error or on an encoding it cannot decode.
func NewCaptureProcess(cam camera.Connection, store *framestore.Store, m *metrics.Metrics) Process {
	return New(Settings{
		WaitForShutdownMsg: fmt.Sprintf("Stopping capture from camera [%s]...", cam.Title()),
		Process:            CaptureProcess(cam, store, m),
	})
}

func CaptureProcess(cam camera.Connection, store *framestore.Store, m *metrics.Metrics) func(context.Context) []chan interface{} {
	return func(ctx context.Context) []chan interface{} {
		stopped := make(chan interface{})
		go func() {
			defer close(stopped)
			if err := capture(ctx, cam, store, m); err != nil {
				log.Error("Capture from camera [%s] terminated: %v", cam.Title(), err)
			}
		}()
		return []chan interface{}{stopped}
	}
}

func capture(ctx context.Context, cam camera.Connection, store *framestore.Store, m *metrics.Metrics) error {
	decoder, err := videodecode.ForFormat(cam.Format())
	if err != nil {
		return err
	}

	dev, err := cam.Claim()
	if err != nil {
		return err
	}

	stream, err := dev.Stream(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	// Next only returns once a buffer is ready, closing the stream
	// wakes it up when the worker is stopped
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			stream.Close()
		case <-done:
		}
	}()

	title := cam.Title()
	for {
		buf, err := stream.Next()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		if len(buf) == 0 {
			m.FrameSkipped(title, metrics.SkipEmpty)
			log.Warn("Skipping empty buffer from camera [%s]", title)
			continue
		}

		payload, err := decoder.Decode(buf)
		if err != nil {
			reason := metrics.SkipDecode
			if errors.Is(err, videodecode.ErrGeometry) {
				reason = metrics.SkipGeometry
			}
			m.FrameSkipped(title, reason)
			log.Warn("Skipping frame from camera [%s]: %v", title, err)
			continue
		}

		if err := store.Publish(payload); err != nil {
			m.FrameSkipped(title, metrics.SkipGeometry)
			log.Warn("Skipping frame from camera [%s]: %v", title, err)
			continue
		}
		m.FramePublished(title)
		log.Debug("Published frame %d from camera [%s]", store.Published(), title)
	}
}
