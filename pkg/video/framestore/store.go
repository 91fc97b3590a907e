package framestore

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

var ErrFrameSize = errors.New("payload size does not match frame format")

// Store holds the most recently decoded frame of one camera. There is one
// writer (the capture worker) and one reader (the compositor). Payloads are
// swapped whole and never mutated after publish, so a reader only ever
// sees an empty slot or a complete frame.
type Store struct {
	format    videoframe.Format
	mu        sync.RWMutex
	payload   []byte
	published uint64
}

func New(format videoframe.Format) *Store {
	return &Store{format: format}
}

func (s *Store) Format() videoframe.Format {
	return s.format
}

// Publish replaces the stored payload. The store takes ownership of the
// slice, callers must not write to it afterwards.
func (s *Store) Publish(payload []byte) error {
	if len(payload) != s.format.FrameSize() {
		return xerror.Errorf(
			"unable to publish %d bytes for %s: %w", len(payload), s.format, ErrFrameSize,
		)
	}

	s.mu.Lock()
	s.payload = payload
	s.mu.Unlock()

	atomic.AddUint64(&s.published, 1)
	return nil
}

// Snapshot returns a private copy of the current payload, or nil when
// nothing has been published yet.
func (s *Store) Snapshot() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.payload) == 0 {
		return nil
	}
	clone := make([]byte, len(s.payload))
	copy(clone, s.payload)
	return clone
}

func (s *Store) Published() uint64 {
	return atomic.LoadUint64(&s.published)
}
