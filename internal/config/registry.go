package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName      = "ambisense"
	registryFile = "devices.yaml"
)

var (
	// Global registry instance (loaded lazily)
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryErr  error

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// Registry stores client-side metadata for devices seen by the CLI:
// nicknames, last known addresses and last-seen timestamps. The device
// itself stores none of this.
type Registry struct {
	Version int                     `yaml:"version"`
	Devices map[string]*KnownDevice `yaml:"devices,omitempty"` // Keyed by device instance name
}

// KnownDevice is the persisted metadata for one device.
type KnownDevice struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastIP   string    `yaml:"last_ip,omitempty"`   // Last known IP address
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*KnownDevice),
	}
}

// GetConfigDir returns the OS-appropriate configuration directory.
//   - Linux: $XDG_CONFIG_HOME/ambisense or $HOME/.config/ambisense
//   - macOS: $HOME/.config/ambisense
//   - Windows: %LOCALAPPDATA%\ambisense
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	default:
		// Linux, macOS and other Unix-like systems: XDG convention
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetRegistryPath returns the full path to the device registry file.
func GetRegistryPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, registryFile), nil
}

// LoadRegistry loads the device registry from disk.
// If the file doesn't exist, returns a new default registry.
// Thread-safe - multiple calls will return the same instance.
func LoadRegistry() (*Registry, error) {
	globalRegistryOnce.Do(func() {
		globalRegistry, globalRegistryErr = loadRegistryFromDisk()
	})
	return globalRegistry, globalRegistryErr
}

func loadRegistryFromDisk() (*Registry, error) {
	path, err := GetRegistryPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get registry path: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewRegistry(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	registry := NewRegistry()
	if err := yaml.Unmarshal(data, registry); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	if registry.Devices == nil {
		registry.Devices = make(map[string]*KnownDevice)
	}

	return registry, nil
}

// Save persists the registry to disk.
func (r *Registry) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	path, err := GetRegistryPath()
	if err != nil {
		return fmt.Errorf("failed to get registry path: %w", err)
	}

	// Create directory with user-only permissions
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}

	return nil
}

// EnsureDevice ensures a device entry exists in the registry and returns it.
func (r *Registry) EnsureDevice(name string) *KnownDevice {
	if r.Devices == nil {
		r.Devices = make(map[string]*KnownDevice)
	}
	if device, exists := r.Devices[name]; exists {
		return device
	}
	device := &KnownDevice{}
	r.Devices[name] = device
	return device
}

// UpdateLastSeen updates the last seen timestamp and IP for a device.
func (r *Registry) UpdateLastSeen(name, ip string) {
	device := r.EnsureDevice(name)
	device.LastSeen = time.Now()
	device.LastIP = ip
}

// SetNickname sets a user-friendly nickname for a device.
func (r *Registry) SetNickname(name, nickname string) {
	r.EnsureDevice(name).Nickname = nickname
}
