package composite

import (
	"sync"

	"github.com/tauraamui/dualcam/pkg/log"
	"github.com/tauraamui/dualcam/pkg/timing"
	"github.com/tauraamui/dualcam/pkg/video/framestore"
)

// Feed is one camera as the compositor sees it.
type Feed struct {
	Title     string
	Store     *framestore.Store
	Transform Transform
	Mask      Mask
}

type Compositor struct {
	mu    sync.Mutex
	feeds []Feed
	probe *timing.Probe
}

func New(probe *timing.Probe, feeds ...Feed) *Compositor {
	return &Compositor{feeds: feeds, probe: probe}
}

func (c *Compositor) Feeds() []Feed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Feed{}, c.feeds...)
}

// SetTransform replaces the transform of the feed at index i from the
// next tick on. Out of range indexes are ignored.
func (c *Compositor) SetTransform(i int, t Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.feeds) {
		return
	}
	c.feeds[i].Transform = t
}

// Tick composites the latest frame of every feed onto s and presents it.
// Feeds without a frame yet are skipped. Store locks are only held while
// snapshotting, never across upload or drawing. Returns the number of
// feeds drawn.
func (c *Compositor) Tick(s Surface) int {
	s.Clear()

	drawn := 0
	for _, feed := range c.Feeds() {
		payload := feed.Store.Snapshot()
		if len(payload) == 0 {
			continue
		}

		tex, err := NewTexture(payload, feed.Store.Format())
		if err != nil {
			log.Error("Unable to upload frame from camera [%s]: %v", feed.Title, err)
			continue
		}

		if err := s.Draw(DrawCall{
			Quad:      FullScreenQuad,
			Uniforms:  Uniforms{Matrix: Identity, Texture: tex},
			Transform: feed.Transform,
			Mask:      feed.Mask,
		}); err != nil {
			log.Error("Unable to draw camera [%s]: %v", feed.Title, err)
			continue
		}
		drawn++
	}
	c.probe.DrawDone()

	if err := s.Present(); err != nil {
		log.Error("Unable to present composited frame: %v", err)
	}
	c.probe.Finish()
	return drawn
}
