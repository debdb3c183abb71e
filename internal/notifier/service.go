package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"visawatch/internal/transport"
	logx "visawatch/pkg/logx"
)

var (
	ErrGaveUp       = errors.New("notifier gave up")
	ErrEmptyMessage = errors.New("notifier: empty message")
)

const historySize = 50

// Service sends alert messages to one chat with a bounded retry policy.
//
// It is safe for concurrent use, though the poller calls it from a single goroutine.
type Service struct {
	mu sync.Mutex

	log     logx.Logger
	sender  transport.Sender
	target  transport.ChatTarget
	cfg     Config
	limiter *rate.Limiter

	// wait blocks for d or until ctx is done; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender transport.Sender, target transport.ChatTarget, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:    log,
		sender: sender,
		target: target,
		wait:   sleepCtx,
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 10 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Send delivers text, split into chunks of at most transport.TextLimit
// runes. Each chunk is retried on its own every RetryDelay up to RetryMax
// times, so a chunk that already went out is never sent again. When a chunk
// exhausts its attempts Send logs at error level and returns an error
// wrapping both ErrGaveUp and the last transport error.
func (s *Service) Send(ctx context.Context, text string) (Delivery, error) {
	if strings.TrimSpace(text) == "" {
		return Delivery{}, ErrEmptyMessage
	}

	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	chunks := transport.SplitText(text, transport.TextLimit)
	var d Delivery
	for i, chunk := range chunks {
		ref, n, err := s.sendChunk(ctx, cfg, lim, chunk, i+1, len(chunks))
		d.Attempts += n
		if err != nil {
			return d, err
		}
		d.Chunks++
		d.Ref = ref
	}
	s.appendHistory(text, d)
	return d, nil
}

// sendChunk returns the number of SendText calls it made.
func (s *Service) sendChunk(ctx context.Context, cfg Config, lim *rate.Limiter, chunk string, part, parts int) (transport.MessageRef, int, error) {
	maxAttempts := 1 + cfg.RetryMax
	opts := &transport.SendOptions{DisablePreview: cfg.DisablePreview}

	var lastErr error
	calls := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return transport.MessageRef{}, calls, err
		}

		s.log.Info("sending message",
			logx.Int("attempt", attempt),
			logx.Int("max", maxAttempts),
			logx.Int("part", part),
			logx.Int("parts", parts),
			logx.Int("bytes", len(chunk)),
		)
		callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
		ref, err := s.sender.SendText(callCtx, s.target, chunk, opts)
		cancel()
		calls++
		if err == nil {
			s.log.Info("message sent successfully", logx.Int("attempt", attempt), logx.Int("part", part), logx.Int("message_id", ref.MessageID))
			return ref, calls, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return transport.MessageRef{}, calls, ctx.Err()
		}
		if attempt >= maxAttempts {
			break
		}

		s.log.Warn("error sending message; retrying",
			logx.Err(err),
			logx.Int("attempt", attempt),
			logx.Int("part", part),
			logx.Duration("retry_in", cfg.RetryDelay),
		)
		if err := s.wait(ctx, cfg.RetryDelay); err != nil {
			return transport.MessageRef{}, calls, err
		}
	}

	s.log.Error("giving up on message", logx.Err(lastErr), logx.Int("attempts", maxAttempts), logx.Int("part", part), logx.Int("parts", parts))
	return transport.MessageRef{}, calls, fmt.Errorf("%w after %d attempts on part %d/%d: %w", ErrGaveUp, maxAttempts, part, parts, lastErr)
}

func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func (s *Service) appendHistory(text string, d Delivery) {
	s.hmu.Lock()
	s.history = append(s.history, HistoryItem{At: time.Now(), Attempts: d.Attempts, Chunks: d.Chunks, Text: text})
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.hmu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
