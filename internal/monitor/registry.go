package monitor

import (
	"sync"

	"github.com/brandongraves08/ecobee-learning/internal/errors"
)

// Registry maps device identifiers to their contexts for multi-device
// deployments. Devices poll independently and may do so concurrently.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
}

func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*Device),
	}
}

func (r *Registry) Register(d *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[d.ID()]; exists {
		return errors.New().WithData(errors.ErrInvalidArgument, d.ID())
	}
	r.devices[d.ID()] = d

	return nil
}

func (r *Registry) Get(id string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	return d, ok
}

func (r *Registry) All() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		all = append(all, d)
	}

	return all
}
