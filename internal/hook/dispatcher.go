package hook

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/airtrail/internal/gesture"
	"github.com/ayusman/airtrail/internal/scene"
	"github.com/ayusman/airtrail/pkg/logger"
	"github.com/ayusman/airtrail/pkg/metrics"
)

// DefaultQueueSize is the number of pending hook runs kept before new ones
// are dropped.
const DefaultQueueSize = 64

// Run results recorded in metrics.
const (
	resultOK      = "ok"
	resultFailed  = "failed"
	resultError   = "error"
	resultDropped = "dropped"
)

// Runner executes one hook. *Executor implements it.
type Runner interface {
	Execute(ctx context.Context, h *Hook, req *Request) (*Response, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQueueSize overrides DefaultQueueSize.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithMetrics sets the metrics manager. The process-wide one is the default.
func WithMetrics(m *metrics.Manager) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithClock overrides the time source used to stamp requests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

type job struct {
	hook *Hook
	req  Request
}

// Dispatcher queues hook runs and executes them one at a time on its own
// goroutine, so the frame loop never waits on a hook. It is a
// scene.StrokeSink.
type Dispatcher struct {
	manager   *Manager
	runner    Runner
	metrics   *metrics.Manager
	log       logger.Logger
	now       func() time.Time
	queueSize int

	mu     sync.Mutex
	closed bool
	queue  chan job
	done   chan struct{}
}

// NewDispatcher starts a dispatcher for the hooks known to manager.
func NewDispatcher(manager *Manager, runner Runner, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		manager:   manager,
		runner:    runner,
		metrics:   metrics.Default(),
		log:       logger.Named("hook"),
		now:       time.Now,
		queueSize: DefaultQueueSize,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan job, d.queueSize)
	go d.work()
	return d
}

// SaveStroke queues every stroke_completed hook. It never fails; a full
// queue drops the run and records it.
func (d *Dispatcher) SaveStroke(ctx context.Context, st scene.Stroke) error {
	d.dispatch(ctx, Request{Event: StrokeCompleted, Stroke: &st})
	return nil
}

// Gesture queues every gesture_changed hook.
func (d *Dispatcher) Gesture(ctx context.Context, e gesture.Event) {
	d.dispatch(ctx, Request{Event: GestureChanged, Gesture: &e})
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) {
	hooks := d.manager.For(req.Event)
	if len(hooks) == 0 {
		return
	}
	req.Timestamp = d.now()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	for _, h := range hooks {
		select {
		case d.queue <- job{hook: h, req: req}:
		default:
			d.metrics.RecordHookRun(h.Manifest.Name, resultDropped)
			d.log.Warn(ctx, "hook queue full, dropping run",
				logger.String("hook", h.Manifest.Name),
				logger.String("event", string(req.Event)))
		}
	}
}

func (d *Dispatcher) work() {
	defer close(d.done)
	ctx := context.Background()
	for j := range d.queue {
		start := time.Now()
		resp, err := d.runner.Execute(ctx, j.hook, &j.req)
		name := j.hook.Manifest.Name
		switch {
		case err != nil:
			d.metrics.RecordHookRun(name, resultError)
			d.log.Error(ctx, "hook failed", logger.String("hook", name), logger.Error(err))
		case !resp.Success:
			d.metrics.RecordHookRun(name, resultFailed)
			d.log.Warn(ctx, "hook reported failure", logger.String("hook", name), logger.String("error", resp.Error))
		default:
			d.metrics.RecordHookRun(name, resultOK)
			d.log.Debug(ctx, "hook ran",
				logger.String("hook", name),
				logger.String("event", string(j.req.Event)),
				logger.Duration("took", time.Since(start)))
		}
	}
}

// Close stops accepting runs and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}
