// Package monitor owns the per-device poll orchestration: one Device holds
// everything a tracked thermostat needs (source, tracker, history handle,
// models) so no mutable state is shared across devices.
package monitor

import (
	"time"

	"github.com/brandongraves08/ecobee-learning/internal/climate"
	"github.com/brandongraves08/ecobee-learning/internal/energy"
	"github.com/brandongraves08/ecobee-learning/internal/history"
	"github.com/brandongraves08/ecobee-learning/internal/logger"
	"github.com/brandongraves08/ecobee-learning/internal/snapshot"
	"github.com/brandongraves08/ecobee-learning/internal/stats"
	"github.com/brandongraves08/ecobee-learning/internal/weather"
)

// DeviceConfig wires one tracked device.
type DeviceConfig struct {
	ID             string
	Source         climate.Source
	Store          history.Repository
	Lookback       time.Duration
	Retention      time.Duration
	AlertThreshold float64
	Energy         energy.Params
	Outdoor        weather.Outdoor
	Publisher      snapshot.Publisher
	Logger         logger.Logger
}

// Device is the per-device context object. Poll and Purge may run
// concurrently with each other; Poll itself must not be called
// concurrently for the same device.
type Device struct {
	id        string
	source    climate.Source
	tracker   *climate.Tracker
	store     history.Repository
	engine    *stats.Engine
	retention time.Duration
	threshold float64
	energy    energy.Params
	outdoor   weather.Outdoor
	publisher snapshot.Publisher
	log       logger.Logger
}

func NewDevice(cfg DeviceConfig) *Device {
	outdoor := cfg.Outdoor
	if outdoor == nil {
		outdoor = weather.NewNoopOutdoor()
	}

	return &Device{
		id:        cfg.ID,
		source:    cfg.Source,
		tracker:   climate.NewTracker(),
		store:     cfg.Store,
		engine:    stats.NewEngine(cfg.Store, cfg.Lookback),
		retention: cfg.Retention,
		threshold: cfg.AlertThreshold,
		energy:    cfg.Energy,
		outdoor:   outdoor,
		publisher: cfg.Publisher,
		log:       cfg.Logger,
	}
}

func (d *Device) ID() string {
	return d.id
}
