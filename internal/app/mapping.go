package app

import (
	"github.com/NanamiChiaki-7/Notiobsidian/internal/config"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/reminder"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/store"
	"github.com/NanamiChiaki-7/Notiobsidian/pkg/logx"
)

// Mapping between on-disk config sections and service configs. Kept in one
// place so defaults live with the services and the file format stays thin.

func mapLoggingConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
	}
}

func mapStorageConfig(c config.StorageConfig) (store.Config, error) {
	busy, err := config.ParseDurationField("storage.busy_timeout", c.BusyTimeout)
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{
		Driver:      c.Driver,
		Path:        c.Path,
		BusyTimeout: busy,
	}, nil
}

func mapReminderConfig(c config.ReminderConfig) (reminder.Config, error) {
	interval, err := config.ParseDurationField("reminder.interval", c.Interval)
	if err != nil {
		return reminder.Config{}, err
	}
	return reminder.Config{
		Enabled:        c.Enabled,
		Interval:       interval,
		DedupCacheSize: c.DedupCacheSize,
		RatePerSec:     c.RatePerSec,
		MaxLiveRecords: c.MaxLiveRecords,
	}, nil
}
