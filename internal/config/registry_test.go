package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	// Should not be empty
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	// Should contain "scrcpygui"
	if !strings.Contains(configDir, "scrcpygui") {
		t.Errorf("GetConfigDir() = %v, should contain 'scrcpygui'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	// Should end with config.yaml
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}

	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.Port != 5555 {
		t.Errorf("NewRegistry().Preferences.Port = %v, want 5555", reg.Preferences.Port)
	}

	if reg.Preferences.Workers != 100 {
		t.Errorf("NewRegistry().Preferences.Workers = %v, want 100", reg.Preferences.Workers)
	}

	if reg.ProbeTimeout() != 500*time.Millisecond {
		t.Errorf("NewRegistry().ProbeTimeout() = %v, want 500ms", reg.ProbeTimeout())
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	// First call should create device
	device1 := reg.EnsureDevice("192.168.1.23")
	if device1 == nil {
		t.Fatal("EnsureDevice() returned nil")
	}

	// Second call should return same device
	device2 := reg.EnsureDevice("192.168.1.23")
	if device1 != device2 {
		t.Error("EnsureDevice() should return same instance for same address")
	}

	// Different address should create new device
	device3 := reg.EnsureDevice("192.168.1.47")
	if device1 == device3 {
		t.Error("EnsureDevice() should create new instance for different address")
	}
}

func TestRegistryUpdateDeviceLastSeen(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateDeviceLastSeen("192.168.1.23")
	after := time.Now()

	device := reg.GetDevice("192.168.1.23")
	if device == nil {
		t.Fatal("Device should exist after UpdateDeviceLastSeen()")
	}

	if device.LastSeen.Before(before) || device.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", device.LastSeen, before, after)
	}
}

func TestRegistryNickname(t *testing.T) {
	reg := NewRegistry()

	if got := reg.Nickname("192.168.1.23"); got != "" {
		t.Errorf("Nickname() for unknown device = %q, want empty", got)
	}

	reg.SetDeviceNickname("192.168.1.23", "Pixel 7")
	if got := reg.Nickname("192.168.1.23"); got != "Pixel 7" {
		t.Errorf("Nickname() = %q, want %q", got, "Pixel 7")
	}
}
