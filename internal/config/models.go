package config

import "time"

// Registry represents the entire user configuration file.
// This stores scan preferences and user-defined metadata for known devices.
type Registry struct {
	Version     int                    `yaml:"version"`
	Devices     map[string]*DeviceMeta `yaml:"devices,omitempty"` // Keyed by device IP address
	Preferences *Preferences           `yaml:"preferences,omitempty"`
}

// DeviceMeta represents user-defined metadata for a single Android device.
// This is keyed by the device's IP address in the Registry.
type DeviceMeta struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	Port           int    `yaml:"port"`             // Target debug bridge port (default 5555)
	ProbeTimeoutMS int    `yaml:"probe_timeout_ms"` // Per-probe connect timeout in milliseconds
	Workers        int    `yaml:"workers"`          // Concurrent probe budget
	AdbPath        string `yaml:"adb_path"`         // Path to the adb binary
	ScrcpyPath     string `yaml:"scrcpy_path"`      // Path to the scrcpy binary
	MDNS           bool   `yaml:"mdns"`             // Also browse mDNS for wireless-debugging devices
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*DeviceMeta),
		Preferences: &Preferences{
			Port:           5555,
			ProbeTimeoutMS: 500,
			Workers:        100,
			AdbPath:        "adb",
			ScrcpyPath:     "scrcpy",
			MDNS:           false,
		},
	}
}

// ProbeTimeout returns the per-probe timeout as a duration.
func (r *Registry) ProbeTimeout() time.Duration {
	return time.Duration(r.Preferences.ProbeTimeoutMS) * time.Millisecond
}

// GetDevice retrieves device metadata by address.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(address string) *DeviceMeta {
	return r.Devices[address]
}

// EnsureDevice ensures a device entry exists in the registry.
// If the device doesn't exist, creates a new entry with default values.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(address string) *DeviceMeta {
	if r.Devices == nil {
		r.Devices = make(map[string]*DeviceMeta)
	}

	if device, exists := r.Devices[address]; exists {
		return device
	}

	device := &DeviceMeta{}
	r.Devices[address] = device
	return device
}

// UpdateDeviceLastSeen updates the last seen timestamp for a device.
func (r *Registry) UpdateDeviceLastSeen(address string) {
	device := r.EnsureDevice(address)
	device.LastSeen = time.Now()
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(address, nickname string) {
	device := r.EnsureDevice(address)
	device.Nickname = nickname
}

// Nickname returns the configured nickname for an address, or "" if none.
func (r *Registry) Nickname(address string) string {
	if device := r.GetDevice(address); device != nil {
		return device.Nickname
	}
	return ""
}
