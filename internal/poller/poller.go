// Package poller keeps widget data fresh by refreshing each watched widget on
// its own interval.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/metrics"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/internal/normalize"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// refresher is the part of the fetcher the poller drives.
type refresher interface {
	Refresh(ctx context.Context, rawURL string, ttl time.Duration) (normalize.Response, error)
	Stale(rawURL string) (normalize.Response, bool)
}

// State is the latest display state of one widget.
type State struct {
	Data      normalize.Response
	HasData   bool
	Err       error
	UpdatedAt time.Time
}

// VisibleError is the error to show alongside the widget. Once a widget has
// data, failures keep the previous data on screen and stay hidden.
func (s State) VisibleError() error {
	if s.HasData {
		return nil
	}
	return s.Err
}

type key struct {
	uid      string
	widgetID string
}

type loop struct {
	gen      uint64
	url      string
	interval time.Duration
	cancel   context.CancelFunc
}

// DefaultIdleTimeout is how long a user's loops keep running after the last
// time anything asked for that user's widgets.
const DefaultIdleTimeout = 10 * time.Minute

type Poller struct {
	mu       sync.Mutex
	base     context.Context
	fetcher  refresher
	loops    map[key]*loop
	states   map[key]State
	lastSeen map[string]time.Time
	gen      uint64
	wg       sync.WaitGroup
	clockNow func() time.Time

	idleTimeout time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

type Option func(*Poller)

// WithIdleTimeout stops every loop of a user nobody has looked at for d.
// Zero or less keeps loops running until they are unwatched.
func WithIdleTimeout(d time.Duration) Option { return func(p *Poller) { p.idleTimeout = d } }

// New creates a poller whose loops run under ctx (and its logger) until
// Stop is called or ctx is cancelled.
func New(ctx context.Context, fetcher refresher, opts ...Option) *Poller {
	p := &Poller{
		base:        ctx,
		fetcher:     fetcher,
		loops:       make(map[key]*loop),
		states:      make(map[key]State),
		lastSeen:    make(map[string]time.Time),
		clockNow:    time.Now,
		idleTimeout: DefaultIdleTimeout,
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.idleTimeout > 0 {
		p.wg.Add(1)
		go p.sweep(janitorInterval(p.idleTimeout))
	}
	return p
}

func janitorInterval(idle time.Duration) time.Duration {
	d := idle / 4
	if d < time.Second {
		d = time.Second
	}
	return d
}

// Watch starts refreshing w. Watching an already watched widget with the same
// URL and interval does nothing; otherwise its loop is replaced.
func (p *Poller) Watch(uid string, w models.Widget) {
	k := key{uid: uid, widgetID: w.WidgetID}
	interval := w.RefreshInterval()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen[uid] = p.clockNow()
	if cur, ok := p.loops[k]; ok {
		if cur.url == w.SourceURL && cur.interval == interval {
			return
		}
		cur.cancel()
		delete(p.states, k)
	}

	p.gen++
	ctx, cancel := context.WithCancel(p.base)
	l := &loop{gen: p.gen, url: w.SourceURL, interval: interval, cancel: cancel}
	p.loops[k] = l

	if resp, ok := p.fetcher.Stale(w.SourceURL); ok {
		p.states[k] = State{Data: resp, HasData: true, UpdatedAt: p.clockNow()}
	}
	metrics.WatchedWidgets.Set(float64(len(p.loops)))

	p.wg.Add(1)
	go p.run(ctx, k, *l)
}

// Unwatch stops the widget's loop and forgets its state.
func (p *Poller) Unwatch(uid, widgetID string) {
	k := key{uid: uid, widgetID: widgetID}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(k)
}

// Sync makes the user's watched set exactly widgets.
func (p *Poller) Sync(uid string, widgets []*models.Widget) {
	keep := make(map[string]bool, len(widgets))
	for _, w := range widgets {
		keep[w.WidgetID] = true
		p.Watch(uid, *w)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen[uid] = p.clockNow()
	for k := range p.loops {
		if k.uid == uid && !keep[k.widgetID] {
			p.removeLocked(k)
		}
	}
}

// Snapshot returns the current state of a watched widget. Reading a
// snapshot counts as activity for the user.
func (p *Poller) Snapshot(uid, widgetID string) (State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen[uid] = p.clockNow()
	s, ok := p.states[key{uid: uid, widgetID: widgetID}]
	return s, ok
}

// Refresh fetches w now. The result is recorded when w is watched with the
// same URL; the returned state reflects this refresh either way.
func (p *Poller) Refresh(ctx context.Context, uid string, w models.Widget) State {
	k := key{uid: uid, widgetID: w.WidgetID}
	p.mu.Lock()
	p.lastSeen[uid] = p.clockNow()
	var gen uint64
	if l, ok := p.loops[k]; ok && l.url == w.SourceURL {
		gen = l.gen
	}
	p.mu.Unlock()

	resp, err := p.fetcher.Refresh(ctx, w.SourceURL, w.RefreshInterval())
	if gen != 0 {
		if s, ok := p.apply(ctx, k, gen, resp, err); ok {
			return s
		}
	}
	if err != nil {
		return State{Err: err, UpdatedAt: p.clockNow()}
	}
	return State{Data: resp, HasData: true, UpdatedAt: p.clockNow()}
}

// Stop cancels every loop and waits for them to exit.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.mu.Lock()
	for k := range p.loops {
		p.removeLocked(k)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Poller) removeLocked(k key) {
	if l, ok := p.loops[k]; ok {
		l.cancel()
		delete(p.loops, k)
	}
	delete(p.states, k)
	metrics.WatchedWidgets.Set(float64(len(p.loops)))
}

// sweep periodically drops the loops of idle users.
func (p *Poller) sweep(every time.Duration) {
	defer p.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-p.base.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.evictIdle()
		}
	}
}

// evictIdle stops the loops and forgets the state of every user not seen
// within the idle timeout. It returns the number of users evicted.
func (p *Poller) evictIdle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idleTimeout <= 0 {
		return 0
	}

	now := p.clockNow()
	evicted := 0
	for uid, seen := range p.lastSeen {
		if now.Sub(seen) < p.idleTimeout {
			continue
		}
		for k := range p.loops {
			if k.uid == uid {
				p.removeLocked(k)
			}
		}
		for k := range p.states {
			if k.uid == uid {
				delete(p.states, k)
			}
		}
		delete(p.lastSeen, uid)
		evicted++
	}
	if evicted > 0 {
		logger.FromContext(p.base).Debug("stopped polling for idle users", "users", evicted)
	}
	return evicted
}

func (p *Poller) run(ctx context.Context, k key, l loop) {
	defer p.wg.Done()
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		p.tick(ctx, k, l)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) tick(ctx context.Context, k key, l loop) {
	resp, err := p.fetcher.Refresh(ctx, l.url, l.interval)
	if ctx.Err() != nil {
		return
	}
	p.apply(ctx, k, l.gen, resp, err)
}

// apply records a refresh result if gen is still the widget's current loop.
// Results of replaced or removed loops are dropped.
func (p *Poller) apply(ctx context.Context, k key, gen uint64, resp normalize.Response, err error) (State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.loops[k]
	if !ok || l.gen != gen {
		metrics.RecordRefresh("discarded")
		return State{}, false
	}

	s := p.states[k]
	s.UpdatedAt = p.clockNow()
	if err != nil {
		s.Err = err
		metrics.RecordRefresh("error")
		logger.FromContext(ctx).Warn("widget refresh failed", "uid", k.uid, "widget_id", k.widgetID, "error", err)
	} else {
		s.Data = resp
		s.HasData = true
		s.Err = nil
		metrics.RecordRefresh("ok")
	}
	p.states[k] = s
	return s, true
}
