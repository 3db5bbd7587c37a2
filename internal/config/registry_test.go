package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "ambisense") {
		t.Errorf("GetConfigDir() = %v, should contain 'ambisense'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigDir_XDGOverride(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG_CONFIG_HOME does not apply on Windows")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir != filepath.Join("/tmp/xdg-test", "ambisense") {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg-test/ambisense", configDir)
	}
}

func TestGetRegistryPath(t *testing.T) {
	path, err := GetRegistryPath()
	if err != nil {
		t.Fatalf("GetRegistryPath() error = %v", err)
	}

	if filepath.Base(path) != "devices.yaml" {
		t.Errorf("GetRegistryPath() should end with 'devices.yaml', got: %v", path)
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
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	// First call should create the entry
	device1 := reg.EnsureDevice("ambisense-living")
	if device1 == nil {
		t.Fatal("EnsureDevice() returned nil")
	}

	// Second call should return the same entry
	device2 := reg.EnsureDevice("ambisense-living")
	if device1 != device2 {
		t.Error("EnsureDevice() should return same instance for same name")
	}

	// Different name should create a new entry
	device3 := reg.EnsureDevice("ambisense-bedroom")
	if device1 == device3 {
		t.Error("EnsureDevice() should create new instance for different name")
	}
}

func TestRegistryUpdateLastSeen(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateLastSeen("ambisense-living", "192.168.1.57")
	after := time.Now()

	device := reg.Devices["ambisense-living"]
	if device == nil {
		t.Fatal("Device should exist after UpdateLastSeen()")
	}

	if device.LastIP != "192.168.1.57" {
		t.Errorf("LastIP = %v, want 192.168.1.57", device.LastIP)
	}

	if device.LastSeen.Before(before) || device.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", device.LastSeen, before, after)
	}
}

func TestRegistrySetNickname(t *testing.T) {
	reg := NewRegistry()

	reg.SetNickname("ambisense-living", "Living Room Strip")

	device := reg.Devices["ambisense-living"]
	if device == nil {
		t.Fatal("Device should exist after SetNickname()")
	}

	if device.Nickname != "Living Room Strip" {
		t.Errorf("Nickname = %v, want 'Living Room Strip'", device.Nickname)
	}
}

func TestRegistrySaveAndLoad_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	reg := NewRegistry()
	reg.SetNickname("ambisense-living", "Living Room Strip")
	reg.UpdateLastSeen("ambisense-living", "192.168.1.57")

	path := filepath.Join(tmpDir, "devices.yaml")
	data, err := yaml.Marshal(reg)
	if err != nil {
		t.Fatalf("Failed to marshal registry: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write registry: %v", err)
	}

	loaded := NewRegistry()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read registry: %v", err)
	}
	if err := yaml.Unmarshal(raw, loaded); err != nil {
		t.Fatalf("Failed to parse registry: %v", err)
	}

	device := loaded.Devices["ambisense-living"]
	if device == nil {
		t.Fatal("Device should exist in loaded registry")
	}
	if device.Nickname != "Living Room Strip" {
		t.Errorf("Loaded nickname = %v, want 'Living Room Strip'", device.Nickname)
	}
	if device.LastIP != "192.168.1.57" {
		t.Errorf("Loaded LastIP = %v, want 192.168.1.57", device.LastIP)
	}
}

func BenchmarkEnsureDevice(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsureDevice("ambisense-living")
	}
}
