package metrics_test

import (
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tauraamui/dualcam/pkg/metrics"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	is := is.New(t)
	var m *metrics.Metrics
	m.FramePublished("camera1")
	m.FrameSkipped("camera1", metrics.SkipDecode)
	m.ObserveTick(time.Millisecond, 2*time.Millisecond)
	is.True(m.Registry() == nil)
}

func TestCountersArePerCamera(t *testing.T) {
	is := is.New(t)
	m := metrics.New()
	m.FramePublished("camera1")
	m.FramePublished("camera1")
	m.FramePublished("camera2")
	m.FrameSkipped("camera2", metrics.SkipDecode)

	count, err := testutil.GatherAndCount(m.Registry(), "dualcam_frames_published_total")
	is.NoErr(err)
	is.Equal(count, 2)

	count, err = testutil.GatherAndCount(m.Registry(), "dualcam_frames_skipped_total")
	is.NoErr(err)
	is.Equal(count, 1)
}

func TestObserveTickRecordsBothHistograms(t *testing.T) {
	is := is.New(t)
	m := metrics.New()
	m.ObserveTick(time.Millisecond, 3*time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry(), "dualcam_draw_seconds", "dualcam_tick_seconds")
	is.NoErr(err)
	is.Equal(count, 2)
}
