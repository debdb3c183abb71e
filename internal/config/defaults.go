package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultEndpoint      = "https://api.schengenvisaappointments.com/api/visa-list/"
	DefaultSourceCountry = "Turkiye"
	DefaultRecordPath    = "./previous_message.txt"
	DefaultSchedule      = "600s"
	DefaultHTTPAddr      = "127.0.0.1:9105"
	DefaultRetryMax      = 5

	EnvTelegramToken = "VISAWATCH_TELEGRAM_TOKEN"
	EnvChatID        = "VISAWATCH_CHAT_ID"
)

var (
	DefaultMissionCountries = []string{"Austria"}
	DefaultKeywords         = []string{"turizm", "tourism", "touristic", "tourist", "short term standard"}
)

// ApplyDefaults fills zero values in place.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Source.Endpoint) == "" {
		c.Source.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(c.Filter.SourceCountry) == "" {
		c.Filter.SourceCountry = DefaultSourceCountry
	}
	if len(c.Filter.MissionCountries) == 0 {
		c.Filter.MissionCountries = append([]string(nil), DefaultMissionCountries...)
	}
	if len(c.Filter.Keywords) == 0 {
		c.Filter.Keywords = append([]string(nil), DefaultKeywords...)
	}
	if strings.TrimSpace(c.Poll.Schedule) == "" {
		if c.Poll.IntervalSeconds > 0 {
			c.Poll.Schedule = strconv.Itoa(c.Poll.IntervalSeconds) + "s"
		} else {
			c.Poll.Schedule = DefaultSchedule
		}
	}
	if strings.TrimSpace(c.Storage.Driver) == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.Driver == "file" && strings.TrimSpace(c.Storage.Path) == "" {
		c.Storage.Path = DefaultRecordPath
	}
	if c.HTTP.Enabled && strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
}

// ApplyEnv overrides secrets from the environment so they can stay out of the file.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	if v, ok := lookup(EnvTelegramToken); ok && strings.TrimSpace(v) != "" {
		c.Telegram.Token = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvChatID); ok && strings.TrimSpace(v) != "" {
		c.Telegram.ChatID = strings.TrimSpace(v)
	}
}

// Validate checks fields that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, fmt.Errorf("telegram.token is required (or set %s)", EnvTelegramToken))
	}
	if strings.TrimSpace(c.Telegram.ChatID) == "" {
		errs = append(errs, fmt.Errorf("telegram.chat_id is required (or set %s)", EnvChatID))
	}
	if c.Notifier.RetryMax != nil && *c.Notifier.RetryMax < 0 {
		errs = append(errs, errors.New("notifier.retry_max must be >= 0"))
	}
	if _, err := c.Durations(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "file", "sqlite", "sqlite3":
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, fmt.Errorf("storage.path is required when storage.driver=%s", c.Storage.Driver))
		}
	case "postgres", "pgx":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required when storage.driver=postgres"))
		}
	case "redis":
		if strings.TrimSpace(c.Storage.Addr) == "" {
			errs = append(errs, errors.New("storage.addr is required when storage.driver=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver: %s", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

func (c *Config) FetchOnStart() bool {
	return c.Poll.FetchOnStart == nil || *c.Poll.FetchOnStart
}

// RetryMax is the number of retries after the first send attempt. Unset
// means 5; an explicit 0 means a single attempt.
func (c *Config) RetryMax() int {
	if c.Notifier.RetryMax == nil {
		return DefaultRetryMax
	}
	return *c.Notifier.RetryMax
}
