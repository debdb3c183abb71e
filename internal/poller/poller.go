// Package poller runs the fetch → filter → render → compare → notify → persist cycle.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"visawatch/internal/listing"
	"visawatch/internal/notifier"
	"visawatch/internal/storage"
	logx "visawatch/pkg/logx"
)

// State is the terminal state of one cycle.
type State string

const (
	StateEmpty         State = "empty"
	StateUnchanged     State = "unchanged"
	StateNotified      State = "notified"
	StateNotifyFailed  State = "notify_failed"
	StatePersistFailed State = "persist_failed"
)

// Failed reports whether the cycle ended in an error state.
func (s State) Failed() bool { return s == StateNotifyFailed || s == StatePersistFailed }

// Fetcher returns the current listings. On error the entries are still
// usable (empty) and the cycle proceeds as if nothing matched.
type Fetcher interface {
	Fetch(ctx context.Context) ([]listing.Entry, error)
}

type Notifier interface {
	Send(ctx context.Context, text string) (notifier.Delivery, error)
}

// Observer receives every cycle result (metrics).
type Observer interface {
	ObserveCycle(r Result)
}

// Result summarizes one cycle. FetchFailed marks an empty cycle caused by a
// failed fetch rather than an empty listing.
type Result struct {
	CycleID     string        `json:"cycle_id"`
	StartedAt   time.Time     `json:"started_at"`
	Took        time.Duration `json:"took"`
	State       State         `json:"state"`
	Fetched     int           `json:"fetched"`
	FetchFailed bool          `json:"fetch_failed,omitempty"`
	Matched     int           `json:"matched"`
	Attempts    int           `json:"attempts,omitempty"`
	Message     string        `json:"message,omitempty"`
	Err         error         `json:"-"`
	Error       string        `json:"error,omitempty"`
}

// Status is a point-in-time view for /status.
type Status struct {
	Schedule string    `json:"schedule"`
	Cycles   uint64    `json:"cycles"`
	NextRun  time.Time `json:"next_run,omitempty"`
	Last     *Result   `json:"last,omitempty"`
}

type Config struct {
	Criteria     listing.Criteria
	Schedule     ParsedSpec
	FetchOnStart bool
	// StoreTimeout bounds each store read/write (default 10s).
	StoreTimeout time.Duration
}

type Poller struct {
	fetcher  Fetcher
	notifier Notifier
	store    storage.Store
	log      logx.Logger
	observer Observer
	now      func() time.Time

	schedule cron.Schedule
	rawSpec  string
	onStart  bool
	storeTO  time.Duration

	mu       sync.Mutex
	criteria listing.Criteria
	cycles   uint64
	nextRun  time.Time
	last     *Result
}

type Option func(*Poller)

func WithObserver(o Observer) Option { return func(p *Poller) { p.observer = o } }

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option { return func(p *Poller) { p.now = now } }

func New(cfg Config, f Fetcher, n Notifier, st storage.Store, log logx.Logger, opts ...Option) (*Poller, error) {
	if f == nil || n == nil || st == nil {
		return nil, errors.New("poller: fetcher, notifier and store are required")
	}
	if cfg.Schedule.Schedule == nil {
		return nil, errors.New("poller: schedule is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 10 * time.Second
	}
	rawSpec := cfg.Schedule.Cron
	if cfg.Schedule.Kind == SpecInterval {
		rawSpec = cfg.Schedule.Every.String()
	}
	p := &Poller{
		fetcher:  f,
		notifier: n,
		store:    st,
		log:      log,
		now:      time.Now,
		schedule: cfg.Schedule.Schedule,
		rawSpec:  rawSpec,
		onStart:  cfg.FetchOnStart,
		storeTO:  cfg.StoreTimeout,
		criteria: cfg.Criteria,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Apply swaps the filter criteria; the next cycle uses them.
func (p *Poller) Apply(c listing.Criteria) {
	p.mu.Lock()
	p.criteria = c
	p.mu.Unlock()
}

func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{Schedule: p.rawSpec, Cycles: p.cycles, NextRun: p.nextRun}
	if p.last != nil {
		cp := *p.last
		st.Last = &cp
	}
	return st
}

// Run executes cycles until ctx is cancelled. Cancellation is checked at
// every wait boundary; an in-flight cycle observes ctx through its I/O.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("poller started", logx.String("schedule", p.rawSpec), logx.Bool("fetch_on_start", p.onStart))
	if p.onStart {
		p.RunOnce(ctx)
	}
	for {
		next := p.schedule.Next(p.now())
		p.mu.Lock()
		p.nextRun = next
		p.mu.Unlock()

		t := time.NewTimer(max(next.Sub(p.now()), 0))
		select {
		case <-ctx.Done():
			t.Stop()
			p.log.Info("poller stopped", logx.Uint64("cycles", p.Status().Cycles))
			return nil
		case <-t.C:
		}
		p.RunOnce(ctx)
	}
}

// RunOnce executes a single cycle and returns its result.
func (p *Poller) RunOnce(ctx context.Context) Result {
	res := Result{CycleID: uuid.NewString(), StartedAt: p.now()}
	log := p.log.With(logx.String("cycle_id", res.CycleID))

	p.mu.Lock()
	crit := p.criteria
	p.mu.Unlock()

	p.cycle(ctx, log, crit, &res)

	res.Took = p.now().Sub(res.StartedAt)
	if res.Err != nil {
		res.Error = res.Err.Error()
	}
	log.Debug("cycle finished", logx.String("state", string(res.State)), logx.Duration("took", res.Took))

	p.mu.Lock()
	p.cycles++
	cp := res
	p.last = &cp
	p.mu.Unlock()
	if p.observer != nil {
		p.observer.ObserveCycle(res)
	}
	return res
}

func (p *Poller) cycle(ctx context.Context, log logx.Logger, crit listing.Criteria, res *Result) {
	entries, err := p.fetcher.Fetch(ctx)
	if err != nil {
		res.FetchFailed = true
		res.Error = err.Error()
	}
	res.Fetched = len(entries)

	batch := crit.Filter(entries)
	res.Matched = len(batch)
	log.Info("filtered data", logx.Int("fetched", res.Fetched), logx.Int("matched", res.Matched), logx.Any("entries", batch))

	msg := listing.Render(batch)
	if msg == "" {
		res.State = StateEmpty
		return
	}
	res.Message = msg

	prev, err := p.read(ctx)
	if err != nil {
		log.Warn("previous message unreadable; treating as empty", logx.Err(err))
		prev = ""
	}
	log.Info("previous message", logx.String("message", prev))
	log.Info("current message", logx.String("message", msg))
	if msg == prev {
		res.State = StateUnchanged
		return
	}

	d, err := p.notifier.Send(ctx, msg)
	res.Attempts = d.Attempts
	if err != nil {
		log.Error("notification failed; skipping cycle", logx.Err(err))
		res.State = StateNotifyFailed
		res.Err = err
		return
	}

	if err := p.write(ctx, msg); err != nil {
		log.Error("failed to persist last message", logx.Err(err))
		res.State = StatePersistFailed
		res.Err = err
		return
	}
	res.State = StateNotified
}

func (p *Poller) read(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.storeTO)
	defer cancel()
	return p.store.Read(ctx)
}

func (p *Poller) write(ctx context.Context, msg string) error {
	ctx, cancel := context.WithTimeout(ctx, p.storeTO)
	defer cancel()
	return p.store.Write(ctx, msg)
}
