package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandongraves08/ecobee-learning/internal/climate"
	"github.com/brandongraves08/ecobee-learning/internal/config"
	"github.com/brandongraves08/ecobee-learning/internal/energy"
	"github.com/brandongraves08/ecobee-learning/internal/errors"
	"github.com/brandongraves08/ecobee-learning/internal/history"
	"github.com/brandongraves08/ecobee-learning/internal/logger"
	"github.com/brandongraves08/ecobee-learning/internal/monitor"
	"github.com/brandongraves08/ecobee-learning/internal/pid"
	"github.com/brandongraves08/ecobee-learning/internal/snapshot"
	"github.com/brandongraves08/ecobee-learning/internal/weather"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	registry, stores, err := buildRegistry()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize device monitoring")
	}
	defer func() {
		for _, store := range stores {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close cycle history store")
			}
		}
	}()

	if err := loop(ctx, registry); err != nil {
		logger.Error().Err(err).Msg("error in poll loop")
	}
	logger.Info().Msg("Exiting...")
}

func buildRegistry() (*monitor.Registry, []history.Repository, error) {
	log := logger.Default()

	store, err := history.NewRepository(history.Config{DBPath: cfg.DBPath}, log)
	if err != nil {
		return nil, nil, err
	}

	var publisher snapshot.Publisher = snapshot.NewLogPublisher(log)
	if cfg.SnapshotPath != "" {
		publisher = snapshot.Multi{publisher, snapshot.NewFilePublisher(cfg.SnapshotPath)}
	}

	// All tracked devices share one physical location, so they share one
	// weather cache and its rate limit.
	outdoor := weather.NewNoopOutdoor()
	if cfg.WeatherAPIKey != "" {
		client, err := weather.NewWeatherAPIClient(cfg.WeatherAPIKey, cfg.ZipCode)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		outdoor = weather.NewCache(client, time.Duration(cfg.WeatherCacheSeconds)*time.Second, log)
	}

	device := monitor.NewDevice(monitor.DeviceConfig{
		ID:             cfg.ClimateEntity,
		Source:         climate.NewHomeAssistantSource(cfg.HAURL, cfg.HAToken, cfg.ClimateEntity, cfg.Mode),
		Store:          store,
		Lookback:       time.Duration(cfg.LookbackDays) * 24 * time.Hour,
		Retention:      time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		AlertThreshold: cfg.AlertThreshold,
		Energy: energy.Params{
			BaselinePerDegree: time.Duration(cfg.BaselineSecondsPerDegree) * time.Second,
			RatePerKWh:        cfg.EnergyRate,
			DrawKW:            cfg.AssumedDrawKW,
			CyclesPerDay:      cfg.CyclesPerDay,
		},
		Outdoor:   outdoor,
		Publisher: publisher,
		Logger:    log,
	})

	registry := monitor.NewRegistry()
	if err := registry.Register(device); err != nil {
		store.Close()
		return nil, nil, err
	}

	return registry, []history.Repository{store}, nil
}

func loop(ctx context.Context, registry *monitor.Registry) error {
	errFactory := errors.New()

	if cfg.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, cfg.Interval)
	}

	ticker := time.NewTicker(time.Duration(cfg.Interval) * time.Second)
	defer ticker.Stop()

	purgeTicker := time.NewTicker(time.Duration(cfg.PurgeIntervalHours) * time.Hour)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for _, device := range registry.All() {
				if err := device.Poll(ctx, now); err != nil {
					// Transient failures retry on the next poll; only a
					// dead context ends the loop.
					if ctx.Err() != nil {
						return nil
					}
					logger.Error().
						Str("device", device.ID()).
						Err(err).
						Msg("poll failed")
				}
			}
		case now := <-purgeTicker.C:
			for _, device := range registry.All() {
				if _, err := device.Purge(ctx, now); err != nil {
					logger.Error().
						Str("device", device.ID()).
						Err(err).
						Msg("purge failed")
				}
			}
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
