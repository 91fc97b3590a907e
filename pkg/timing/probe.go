package timing

import (
	"os"
	"time"

	"github.com/tauraamui/dualcam/pkg/log"
	"github.com/tauraamui/dualcam/pkg/metrics"
	"golang.org/x/term"
)

type Sample struct {
	Draw  time.Duration
	Total time.Duration
}

// Probe times one render tick: Start when event handling begins, DrawDone
// once the draw calls are issued, Finish after present. It is purely
// observational. A nil *Probe is valid.
type Probe struct {
	now     func() time.Time
	status  func(string, ...interface{})
	metrics *metrics.Metrics

	started bool
	start   time.Time
	drawn   time.Time
}

func New(m *metrics.Metrics) *Probe {
	return &Probe{
		now:     time.Now,
		status:  statusSink(),
		metrics: m,
	}
}

// statusSink redraws the status line in place on a terminal, anywhere
// else each tick would become its own line so it is only logged at debug.
func statusSink() func(string, ...interface{}) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return func(format string, a ...interface{}) { log.Status(format, a...) }
	}
	return func(format string, a ...interface{}) { log.Debug(format, a...) }
}

func (p *Probe) Start() {
	if p == nil {
		return
	}
	p.start = p.now()
	p.drawn = p.start
	p.started = true
}

// StartIfIdle starts a tick unless one is already running. Draws can
// happen without an event update in between on fast displays.
func (p *Probe) StartIfIdle() {
	if p == nil || p.started {
		return
	}
	p.Start()
}

func (p *Probe) DrawDone() {
	if p == nil || !p.started {
		return
	}
	p.drawn = p.now()
}

// Finish closes the tick and reports it. Without a matching Start it
// reports nothing.
func (p *Probe) Finish() Sample {
	if p == nil || !p.started {
		return Sample{}
	}
	p.started = false
	s := Sample{
		Draw:  p.drawn.Sub(p.start),
		Total: p.now().Sub(p.start),
	}
	p.status("ms: %d (draw) + %d (tick)", s.Draw.Milliseconds(), s.Total.Milliseconds())
	p.metrics.ObserveTick(s.Draw, s.Total)
	return s
}
