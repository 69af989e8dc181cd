// Package ui runs the lookup state machine on a single goroutine that owns the view.
// Lookups run on background goroutines and post their results back as events, so the
// view is only ever mutated by the loop.
package ui

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/client"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/models"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/observability"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/view"
)

var (
	// ErrAlertOpen is returned by Trigger while an alert awaits dismissal.
	ErrAlertOpen = errors.New("alert open; dismiss it first")
	// ErrNoAlert is returned by Dismiss when there is nothing to dismiss.
	ErrNoAlert = errors.New("no alert to dismiss")
	// ErrStopped is returned once Run has exited.
	ErrStopped = errors.New("ui loop stopped")
)

// Lookup performs one weather lookup. *service.WeatherService satisfies it.
type Lookup interface {
	Lookup(ctx context.Context, city string) (models.WeatherReading, error)
}

// Update is what a Renderer receives after every state change.
type Update struct {
	Seq   uint64        `json:"seq"`
	State State         `json:"state"`
	Query string        `json:"query,omitempty"`
	View  view.Snapshot `json:"view"`
	Alert *Alert        `json:"alert,omitempty"`
}

// Renderer draws updates. Render is called on the loop goroutine and should not block for long.
type Renderer interface {
	Render(Update)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Update)

func (f RendererFunc) Render(u Update) { f(u) }

type event interface{}

type triggerEvent struct {
	city  string
	reply chan error
}

type dismissEvent struct {
	reply chan error
}

type resultEvent struct {
	gen     uint64
	reading models.WeatherReading
	err     error
}

// Loop owns the view and the lookup state machine.
//
// A trigger that arrives while a lookup is in flight cancels that lookup and starts a
// new one; a result from a superseded lookup is discarded. Triggers are refused while an
// alert is open.
type Loop struct {
	lookup     Lookup
	renderer   Renderer
	provider   string
	timeFormat string
	logger     *zap.Logger

	events  chan event
	done    chan struct{}
	started atomic.Bool
	last    atomic.Pointer[Update]

	// Owned by the Run goroutine.
	view   *view.View
	state  State
	query  string
	alert  *Alert
	gen    uint64
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Loop.
type Option func(*Loop)

// WithProvider sets the provider name shown in the status line.
func WithProvider(name string) Option {
	return func(l *Loop) { l.provider = name }
}

// WithTimeFormat sets the time.Format layout of the status line.
func WithTimeFormat(layout string) Option {
	return func(l *Loop) { l.timeFormat = layout }
}

// WithLogger sets the loop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns a Loop in the Idle state with a placeholder view. Call Run to start it.
func New(lookup Lookup, renderer Renderer, opts ...Option) *Loop {
	l := &Loop{
		lookup:     lookup,
		renderer:   renderer,
		provider:   client.ProviderName,
		timeFormat: "03:04 PM",
		logger:     zap.NewNop(),
		events:     make(chan event, 16),
		done:       make(chan struct{}),
		view:       view.New(),
		state:      Idle,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.renderer == nil {
		l.renderer = RendererFunc(func(Update) {})
	}
	initial := l.snapshot()
	l.last.Store(&initial)
	return l
}

// Run processes events until ctx is done, then cancels any in-flight lookup, waits for
// it to return, and returns ctx.Err(). Run may be called once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("ui loop already started")
	}

	l.publish()
	for {
		select {
		case <-ctx.Done():
			if l.cancel != nil {
				l.cancel()
			}
			close(l.done)
			l.wg.Wait()
			return ctx.Err()
		case ev := <-l.events:
			l.handle(ctx, ev)
		}
	}
}

// Trigger starts a lookup for city (blank means the default city). It returns once the
// loop has accepted or refused the trigger; the result arrives later through the Renderer.
func (l *Loop) Trigger(city string) error {
	reply := make(chan error, 1)
	if !l.post(triggerEvent{city: city, reply: reply}) {
		return ErrStopped
	}
	return l.await(reply)
}

// Dismiss acknowledges the open alert and returns the loop to Idle.
func (l *Loop) Dismiss() error {
	reply := make(chan error, 1)
	if !l.post(dismissEvent{reply: reply}) {
		return ErrStopped
	}
	return l.await(reply)
}

// Snapshot returns the most recently rendered update. Safe from any goroutine.
func (l *Loop) Snapshot() Update {
	return *l.last.Load()
}

// Done is closed when Run is shutting down.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) post(ev event) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- ev:
		return true
	case <-l.done:
		return false
	}
}

func (l *Loop) await(reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-l.done:
		return ErrStopped
	}
}

func (l *Loop) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case triggerEvent:
		ev.reply <- l.startLookup(ctx, ev.city)
	case dismissEvent:
		if l.state != ErrorShown {
			ev.reply <- ErrNoAlert
			return
		}
		l.alert = nil
		l.transition(Idle)
		ev.reply <- nil
	case resultEvent:
		l.finishLookup(ev)
	}
}

func (l *Loop) startLookup(ctx context.Context, city string) error {
	if l.state == ErrorShown {
		l.logger.Debug("trigger ignored while alert open", zap.String("query", city))
		return ErrAlertOpen
	}
	if l.state == Fetching && l.cancel != nil {
		l.cancel()
		observability.WeatherLookupsSupersededTotal.Inc()
		l.logger.Debug("lookup superseded", zap.String("previous", l.query), zap.String("query", city))
	}

	l.gen++
	gen := l.gen
	lookupCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.query = city
	l.transition(Fetching)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		reading, err := l.lookup.Lookup(lookupCtx, city)
		l.post(resultEvent{gen: gen, reading: reading, err: err})
	}()
	return nil
}

func (l *Loop) finishLookup(ev resultEvent) {
	if ev.gen != l.gen || l.state != Fetching {
		l.logger.Debug("stale lookup result dropped", zap.Uint64("generation", ev.gen))
		return
	}
	l.cancel()
	l.cancel = nil

	if ev.err != nil {
		alert := AlertFor(ev.err)
		l.alert = &alert
		l.transition(ErrorShown)
		return
	}

	l.view.Apply(ev.reading, l.provider, l.timeFormat)
	l.transition(Displaying)
	// Displaying is momentary; the loop is ready for the next trigger.
	l.state = Idle
	observability.UIStateTransitionsTotal.WithLabelValues(Idle.String()).Inc()
	l.storeLast()
}

func (l *Loop) transition(to State) {
	l.state = to
	observability.UIStateTransitionsTotal.WithLabelValues(to.String()).Inc()
	l.publish()
}

func (l *Loop) publish() {
	u := l.storeLast()
	l.renderer.Render(u)
}

func (l *Loop) storeLast() Update {
	l.seq++
	u := l.snapshot()
	l.last.Store(&u)
	return u
}

func (l *Loop) snapshot() Update {
	u := Update{
		Seq:   l.seq,
		State: l.state,
		Query: l.query,
		View:  l.view.Snapshot(),
	}
	if l.alert != nil {
		a := *l.alert
		u.Alert = &a
	}
	return u
}
