package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tauraamui/dualcam/pkg/log"
)

const namespace = "dualcam"

// Skip reasons label the frames a capture worker drops.
const (
	SkipDecode   = "decode"
	SkipGeometry = "geometry"
	SkipEmpty    = "empty"
)

// Metrics groups every collector the viewer exports. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	published *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	draw      prometheus.Histogram
	tick      prometheus.Histogram
}

func New() *Metrics {
	tickBuckets := prometheus.ExponentialBuckets(0.0005, 2, 10)
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_published_total",
			Help:      "Decoded frames published into a camera frame store.",
		}, []string{"camera"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_skipped_total",
			Help:      "Captured buffers dropped before publishing.",
		}, []string{"camera", "reason"}),
		draw: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "draw_seconds",
			Help:      "Time spent issuing the composite draw calls per tick.",
			Buckets:   tickBuckets,
		}),
		tick: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_seconds",
			Help:      "Total render tick time including event handling.",
			Buckets:   tickBuckets,
		}),
	}
	m.registry.MustRegister(m.published, m.skipped, m.draw, m.tick)
	return m
}

func (m *Metrics) FramePublished(camera string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(camera).Inc()
}

func (m *Metrics) FrameSkipped(camera, reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(camera, reason).Inc()
}

func (m *Metrics) ObserveTick(draw, total time.Duration) {
	if m == nil {
		return
	}
	m.draw.Observe(draw.Seconds())
	m.tick.Observe(total.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Serve exposes the registry on addr at /metrics until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Unable to shutdown metrics server: %v", err)
		}
	}()

	log.Info("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
