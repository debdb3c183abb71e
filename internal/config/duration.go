package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Durations holds every duration field of Config, parsed and defaulted.
type Durations struct {
	TelegramTimeout time.Duration
	SourceTimeout   time.Duration
	RetryDelay      time.Duration
	SendTimeout     time.Duration
	StorageBusy     time.Duration
}

// durationField describes one duration setting. An empty raw value takes
// def; a set value must parse and be at least min.
type durationField struct {
	path string
	raw  string
	def  time.Duration
	min  time.Duration
	dst  *time.Duration
}

func (c *Config) durationFields(d *Durations) []durationField {
	return []durationField{
		{"telegram.timeout", c.Telegram.Timeout, 15 * time.Second, time.Second, &d.TelegramTimeout},
		{"source.timeout", c.Source.Timeout, 30 * time.Second, time.Second, &d.SourceTimeout},
		{"notifier.retry_delay", c.Notifier.RetryDelay, 10 * time.Second, time.Millisecond, &d.RetryDelay},
		{"notifier.send_timeout", c.Notifier.SendTimeout, 30 * time.Second, time.Second, &d.SendTimeout},
		// 0 turns the sqlite busy wait off.
		{"storage.busy_timeout", c.Storage.BusyTimeout, time.Second, 0, &d.StorageBusy},
	}
}

// Durations parses every duration field. The error joins one entry per bad
// field, each prefixed with the field path.
func (c *Config) Durations() (Durations, error) {
	var d Durations
	var errs []error
	for _, f := range c.durationFields(&d) {
		v, err := f.parse()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*f.dst = v
	}
	return d, errors.Join(errs...)
}

func (f durationField) parse() (time.Duration, error) {
	s := strings.TrimSpace(f.raw)
	if s == "" {
		return f.def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", f.path, f.raw, err)
	}
	if v < f.min {
		return 0, fmt.Errorf("%s: %s is below the minimum of %s", f.path, v, f.min)
	}
	return v, nil
}
