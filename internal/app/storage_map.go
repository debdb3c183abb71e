package app

import (
	"strings"

	"visawatch/internal/config"
	"visawatch/internal/listing"
	"visawatch/internal/notifier"
	"visawatch/internal/storage"
	"visawatch/internal/transport"
	logx "visawatch/pkg/logx"
)

// Config sections map onto component configs here so the components never
// import internal/config.

func mapStorageConfig(cfg *config.Config, d config.Durations) storage.Config {
	sc := cfg.Storage
	return storage.Config{
		Driver:      strings.ToLower(strings.TrimSpace(sc.Driver)),
		Path:        strings.TrimSpace(sc.Path),
		DSN:         strings.TrimSpace(sc.DSN),
		Addr:        strings.TrimSpace(sc.Addr),
		Password:    sc.Password,
		DB:          sc.DB,
		Key:         strings.TrimSpace(sc.Key),
		BusyTimeout: d.StorageBusy,
	}
}

func mapLogConfig(cfg *config.Config) logx.Config {
	lc := cfg.Logging
	return logx.Config{
		Level:   lc.Level,
		Console: lc.Console,
		File:    logx.FileConfig{Enabled: lc.File.Enabled, Path: lc.File.Path},
		Telegram: logx.TelegramConfig{
			Enabled:    lc.Telegram.Enabled,
			ChatID:     lc.Telegram.ChatID,
			ThreadID:   lc.Telegram.ThreadID,
			MinLevel:   lc.Telegram.MinLevel,
			RatePerSec: lc.Telegram.RatePerSec,
		},
	}
}

func mapNotifierConfig(cfg *config.Config, d config.Durations) notifier.Config {
	return notifier.Config{
		RetryMax:       cfg.RetryMax(),
		RetryDelay:     d.RetryDelay,
		RatePerSec:     cfg.Notifier.RatePerSec,
		SendTimeout:    d.SendTimeout,
		DisablePreview: cfg.Notifier.DisablePreview,
	}
}

func mapCriteria(cfg *config.Config) listing.Criteria {
	return listing.Criteria{
		SourceCountry:    cfg.Filter.SourceCountry,
		MissionCountries: append([]string(nil), cfg.Filter.MissionCountries...),
		Keywords:         append([]string(nil), cfg.Filter.Keywords...),
	}
}

func mapFetcherConfig(cfg *config.Config, d config.Durations) listing.FetcherConfig {
	return listing.FetcherConfig{
		Endpoint:  cfg.Source.Endpoint,
		Timeout:   d.SourceTimeout,
		UserAgent: cfg.Source.UserAgent,
	}
}

func alertTarget(cfg *config.Config) transport.ChatTarget {
	return transport.ChatTarget{ChatID: strings.TrimSpace(cfg.Telegram.ChatID), ThreadID: cfg.Telegram.ThreadID}
}
