// Package config provides user configuration management for scrcpygui.
//
// This package manages a YAML-based configuration file that stores scan
// preferences (target port, probe timeout, worker budget, external tool
// paths) and user-defined metadata for known Android devices (nicknames,
// last-seen timestamps). The configuration follows OS-specific conventions
// for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/scrcpygui/config.yaml or $HOME/.config/scrcpygui/config.yaml
//   - macOS: $HOME/.config/scrcpygui/config.yaml
//   - Windows: %LOCALAPPDATA%\scrcpygui\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SetDeviceNickname("192.168.1.23", "Pixel 7")
//	registry.UpdateDeviceLastSeen("192.168.1.23")
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
