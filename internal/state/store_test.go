package state

import (
	"testing"

	"github.com/techposts/ambisense-bridge/internal/device"
)

func intPtr(n int) *int { return &n }

func customSettings() Settings {
	s := DefaultSettings()
	s.Brightness = 100
	s.Red = 10
	s.Green = 20
	s.Blue = 30
	s.LightMode = 2
	s.MotionSmoothingEnabled = true
	s.PositionIGain = 0.05
	return s
}

func TestNewStore_StartsEmpty(t *testing.T) {
	store := NewStore("192.168.1.57")

	snap := store.Snapshot()
	if snap.DistanceCm != 0 {
		t.Errorf("DistanceCm = %d, want 0 before first poll", snap.DistanceCm)
	}
	if snap.Settings != DefaultSettings() {
		t.Errorf("Settings = %+v, want defaults before first poll", snap.Settings)
	}
	if store.Available() {
		t.Error("Available() = true, want false before first poll")
	}
}

func TestMerge_BothSucceed(t *testing.T) {
	store := NewStore("192.168.1.57")
	settings := customSettings()

	snap, err := store.Merge(intPtr(150), &settings)
	if err != nil {
		t.Fatalf("Merge() error = %v, want nil", err)
	}

	if snap.DistanceCm != 150 {
		t.Errorf("DistanceCm = %d, want 150", snap.DistanceCm)
	}
	if snap.Settings != settings {
		t.Errorf("Settings = %+v, want %+v", snap.Settings, settings)
	}
	if !store.Available() {
		t.Error("Available() = false, want true after successful merge")
	}
}

func TestMerge_BothFail(t *testing.T) {
	store := NewStore("192.168.1.57")
	settings := customSettings()
	store.Merge(intPtr(150), &settings)

	snap, err := store.Merge(nil, nil)

	if err == nil {
		t.Fatal("Merge(nil, nil) should return error")
	}
	if !device.IsUnreachable(err) {
		t.Errorf("Merge(nil, nil) error should be unreachable, got %T: %v", err, err)
	}

	// The previous snapshot stays visible, only availability flips
	if snap.DistanceCm != 150 {
		t.Errorf("DistanceCm = %d, want previous value 150", snap.DistanceCm)
	}
	if snap.Settings != settings {
		t.Errorf("Settings = %+v, want previous settings retained", snap.Settings)
	}
	if store.Available() {
		t.Error("Available() = true, want false when both fetches fail")
	}
	if store.Snapshot().DistanceCm != 150 {
		t.Error("stored snapshot should be unchanged after total failure")
	}
}

func TestMerge_SettingsFailed_CarriesForward(t *testing.T) {
	store := NewStore("192.168.1.57")
	settings := customSettings()
	store.Merge(intPtr(150), &settings)

	snap, err := store.Merge(intPtr(170), nil)
	if err != nil {
		t.Fatalf("Merge() error = %v, want nil", err)
	}

	if snap.DistanceCm != 170 {
		t.Errorf("DistanceCm = %d, want 170", snap.DistanceCm)
	}
	// Every settings field carried forward verbatim
	if snap.Settings != settings {
		t.Errorf("Settings = %+v, want previous settings %+v", snap.Settings, settings)
	}
	if !store.Available() {
		t.Error("Available() = false, want true when distance succeeded")
	}
}

func TestMerge_DistanceFailed_RetainsPrevious(t *testing.T) {
	store := NewStore("192.168.1.57")
	settings := customSettings()
	store.Merge(intPtr(150), &settings)

	// A brief sensor dropout must not look like an object at zero range
	snap, err := store.Merge(nil, &settings)
	if err != nil {
		t.Fatalf("Merge() error = %v, want nil", err)
	}

	if snap.DistanceCm != 150 {
		t.Errorf("DistanceCm = %d, want previous reading 150", snap.DistanceCm)
	}
	if !store.Available() {
		t.Error("Available() = false, want true when settings succeeded")
	}
}

func TestMerge_DistanceFailed_BeforeFirstReading(t *testing.T) {
	store := NewStore("192.168.1.57")
	settings := customSettings()

	// No distance reading has ever succeeded: fall back to 0
	snap, err := store.Merge(nil, &settings)
	if err != nil {
		t.Fatalf("Merge() error = %v, want nil", err)
	}

	if snap.DistanceCm != 0 {
		t.Errorf("DistanceCm = %d, want 0 before any successful reading", snap.DistanceCm)
	}
}

func TestMerge_RecoversAvailability(t *testing.T) {
	store := NewStore("192.168.1.57")
	settings := customSettings()

	store.Merge(intPtr(150), &settings)
	store.Merge(nil, nil)
	if store.Available() {
		t.Fatal("Available() should be false after total failure")
	}

	store.Merge(intPtr(90), &settings)
	if !store.Available() {
		t.Error("Available() = false, want true after recovery")
	}
	if store.Snapshot().DistanceCm != 90 {
		t.Errorf("DistanceCm = %d, want 90 after recovery", store.Snapshot().DistanceCm)
	}
}

func TestMerge_SettingsReplaceWholesale(t *testing.T) {
	store := NewStore("192.168.1.57")
	first := customSettings()
	store.Merge(intPtr(150), &first)

	second := DefaultSettings()
	second.Brightness = 42
	snap, err := store.Merge(intPtr(150), &second)
	if err != nil {
		t.Fatalf("Merge() error = %v, want nil", err)
	}

	// New settings replace the old ones completely, no field-level merge
	if snap.Settings != second {
		t.Errorf("Settings = %+v, want wholesale replacement %+v", snap.Settings, second)
	}
}

func TestDefaultSettings(t *testing.T) {
	d := DefaultSettings()

	if d.MinDistanceCm != 30 || d.MaxDistanceCm != 300 {
		t.Errorf("range = %d-%d, want 30-300", d.MinDistanceCm, d.MaxDistanceCm)
	}
	if d.Brightness != 255 {
		t.Errorf("Brightness = %d, want 255", d.Brightness)
	}
	if d.Red != 255 || d.Green != 255 || d.Blue != 255 {
		t.Errorf("RGB = (%d,%d,%d), want (255,255,255)", d.Red, d.Green, d.Blue)
	}
	if d.EffectSpeed != 50 || d.EffectIntensity != 100 {
		t.Errorf("effects = %d/%d, want 50/100", d.EffectSpeed, d.EffectIntensity)
	}
	if d.LightMode != 0 {
		t.Errorf("LightMode = %d, want 0", d.LightMode)
	}
	if d.PositionIGain != 0.01 {
		t.Errorf("PositionIGain = %v, want 0.01", d.PositionIGain)
	}
}
