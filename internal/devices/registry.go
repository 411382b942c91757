package devices

import (
	"fmt"
	"sync"
)

// NotFoundError indicates a selection attempt for an address that is not in
// the registry. The registry state is unchanged when it is returned.
type NotFoundError struct {
	Address string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no device with address %s in registry", e.Address)
}

// Registry holds the authoritative, deduplicated device list and the current
// selection. A scan run replaces the contents wholesale; individual entries
// are never mutated in place, so readers can never observe a half-updated
// list.
type Registry struct {
	mu       sync.RWMutex
	devices  []*Device
	byAddr   map[string]*Device
	selected string // address of the selected device, "" when none
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		byAddr: make(map[string]*Device),
	}
}

// Replace atomically swaps the entire registry contents for a new scan run's
// results and clears any prior selection. Duplicate addresses keep the first
// occurrence, preserving discovery order.
func (r *Registry) Replace(devs []*Device) {
	ordered := make([]*Device, 0, len(devs))
	byAddr := make(map[string]*Device, len(devs))
	for _, d := range devs {
		if _, exists := byAddr[d.Address]; exists {
			continue
		}
		byAddr[d.Address] = d
		ordered = append(ordered, d)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = ordered
	r.byAddr = byAddr
	r.selected = ""
}

// Select marks exactly one device as selected. Returns NotFoundError if the
// address is absent; the previous selection is kept in that case.
func (r *Registry) Select(address string) (*Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byAddr[address]
	if !ok {
		return nil, &NotFoundError{Address: address}
	}
	r.selected = address
	return d, nil
}

// ClearSelection removes the current selection, if any.
func (r *Registry) ClearSelection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = ""
}

// CurrentSelection returns the selected device, or false when none is selected.
func (r *Registry) CurrentSelection() (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.selected == "" {
		return nil, false
	}
	d, ok := r.byAddr[r.selected]
	return d, ok
}

// List returns a copy of the device list in discovery order.
func (r *Registry) List() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Len returns the number of devices currently in the registry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
