// Package app wires configuration, logging, transport, storage and the poller
// into one daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"visawatch/internal/config"
	"visawatch/internal/httpapi"
	"visawatch/internal/listing"
	"visawatch/internal/metrics"
	"visawatch/internal/notifier"
	"visawatch/internal/poller"
	"visawatch/internal/runtime/supervisor"
	"visawatch/internal/storage"
	"visawatch/internal/transport/telegram"
	logx "visawatch/pkg/logx"
)

// ErrCycleFailed is returned by RunOnce when the cycle ended in a failed state.
var ErrCycleFailed = errors.New("cycle failed")

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	tg    *telegram.Adapter
	store storage.Store

	notif   *notifier.Service
	poller  *poller.Poller
	metrics *metrics.Metrics
	http    *httpapi.Server
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	spec, err := poller.ParseSchedule(cfg.Poll.Schedule)
	if err != nil {
		return nil, fmt.Errorf("poll.schedule: %w", err)
	}
	dur, err := cfg.Durations()
	if err != nil {
		return nil, err
	}

	// The Telegram sink needs the adapter and the adapter needs a logger, so
	// the sender is attached after both exist.
	logSvc, log := logx.New(mapLogConfig(cfg), nil)

	tg, err := telegram.New(telegram.Config{
		Token:   cfg.Telegram.Token,
		Offline: cfg.Telegram.Offline,
		Timeout: dur.TelegramTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	logSvc.SetSender(tg)

	store, err := storage.Open(mapStorageConfig(cfg, dur), log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	log.Info("storage ready", logx.String("driver", cfg.Storage.Driver))

	notif := notifier.New(mapNotifierConfig(cfg, dur), tg, alertTarget(cfg), log.With(logx.String("comp", "notifier")))
	fetcher := listing.NewFetcher(mapFetcherConfig(cfg, dur), nil, log.With(logx.String("comp", "fetcher")))
	m := metrics.New()

	p, err := poller.New(poller.Config{
		Criteria:     mapCriteria(cfg),
		Schedule:     spec,
		FetchOnStart: cfg.FetchOnStart(),
	}, fetcher, notif, store, log.With(logx.String("comp", "poller")), poller.WithObserver(m))
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	a := &App{
		cfgm:    cfgm,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		tg:      tg,
		store:   store,
		notif:   notif,
		poller:  p,
		metrics: m,
	}
	return a, nil
}

// Start launches the poller and its supporting tasks under one supervisor.
// It returns once everything is running; use Done and Err to follow it.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	updates := a.cfgm.Subscribe(1)
	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go("config.apply", func(ctx context.Context) error {
		defer a.cfgm.Unsubscribe(updates)
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg, ok := <-updates:
				if !ok {
					return nil
				}
				a.applyConfig(cfg)
			}
		}
	})

	a.sup.GoRestart("poller", time.Second, time.Minute, a.poller.Run)

	if cfg := a.cfgm.Get(); cfg.HTTP.Enabled {
		a.http = httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewRouter(httpapi.Deps{
			Poller:     a.poller,
			Tasks:      a.sup,
			Deliveries: a.notif,
			Registry:   a.metrics.Registry(),
			Pprof:      cfg.HTTP.Pprof,
		}), a.log.With(logx.String("comp", "http")))
		a.sup.Go("http", a.http.Run)
	}

	a.sup.Go("systemd.watchdog", func(ctx context.Context) error { return watchdogLoop(ctx, a.log) })
	sdNotify(a.log, daemon.SdNotifyReady)
	a.log.Info("started", logx.String("config", a.cfgm.Path()))
	return nil
}

// applyConfig hot-applies the sections that can change at runtime. The rest
// is flagged by SummarizeChange as requiring a restart.
func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	dur, err := cfg.Durations()
	if err != nil {
		a.log.Error("config not applied", logx.Err(err))
		return
	}
	a.logs.Apply(mapLogConfig(cfg))
	a.notif.Apply(mapNotifierConfig(cfg, dur))
	a.poller.Apply(mapCriteria(cfg))
	a.log.Debug("config applied")
}

// RunOnce performs a single cycle without starting background tasks.
func (a *App) RunOnce(ctx context.Context) (poller.Result, error) {
	res := a.poller.RunOnce(ctx)
	a.log.Info("cycle done", logx.String("state", string(res.State)), logx.Int("matched", res.Matched))
	if res.State.Failed() {
		return res, fmt.Errorf("%w: %s: %w", ErrCycleFailed, res.State, res.Err)
	}
	return res, nil
}

// Done is closed when the supervisor context is cancelled.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal task error, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	a.log.Info("stopping", logx.String("reason", string(reason)))
	sdNotify(a.log, daemon.SdNotifyStopping)

	var errs []error
	if a.sup != nil {
		a.sup.Cancel()
		if err := a.step(ctx, "supervisor", 5*time.Second, a.sup.Wait); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
	}
	if err := a.step(ctx, "storage", time.Second, func(context.Context) error { return a.store.Close() }); err != nil {
		errs = append(errs, err)
	}

	a.log.Info("stopped")
	_ = a.logs.Close()
	return errors.Join(errs...)
}

// step runs one shutdown step bounded by limit and by the caller's deadline.
func (a *App) step(ctx context.Context, name string, limit time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	stepCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("step", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("step", name), logx.Duration("took", time.Since(start)))
		return err
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)", logx.String("step", name), logx.Duration("elapsed", time.Since(start)))
		return stepCtx.Err()
	}
}
