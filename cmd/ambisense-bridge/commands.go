package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/techposts/ambisense-bridge/internal/bridge"
	"github.com/techposts/ambisense-bridge/internal/config"
	"github.com/techposts/ambisense-bridge/internal/device"
	"github.com/techposts/ambisense-bridge/internal/discovery"
	"github.com/techposts/ambisense-bridge/internal/monitor"
	"github.com/techposts/ambisense-bridge/internal/params"
	"github.com/techposts/ambisense-bridge/internal/state"
)

// Command flags
var (
	deviceHost     string
	devicePort     int
	requestTimeout int
	scanTimeout    int
	waitForName    string
	outputFormat   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&deviceHost, "device", "", "Device hostname or IP (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 80, "Device HTTP port")
	rootCmd.PersistentFlags().IntVar(&requestTimeout, "timeout", 5, "Per-request timeout in seconds")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(applyAllCmd)
	rootCmd.AddCommand(monitorCmd)
}

// newBridge builds a client and bridge for one-shot commands.
func newBridge() (*bridge.Bridge, error) {
	host, err := resolveHost()
	if err != nil {
		return nil, err
	}
	client := device.NewClient(host, devicePort)
	client.SetTimeout(time.Duration(requestTimeout) * time.Second)
	return bridge.New(client), nil
}

// resolveHost returns the --device flag, falling back to the most
// recently seen device in the registry.
func resolveHost() (string, error) {
	if deviceHost != "" {
		return deviceHost, nil
	}

	registry, err := config.LoadRegistry()
	if err == nil {
		var newest *config.KnownDevice
		for _, known := range registry.Devices {
			if known.LastIP == "" {
				continue
			}
			if newest == nil || known.LastSeen.After(newest.LastSeen) {
				newest = known
			}
		}
		if newest != nil {
			return newest.LastIP, nil
		}
	}

	return "", fmt.Errorf("no device specified: pass --device or run 'ambisense-bridge scan' first")
}

// scanCmd discovers devices on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for AmbiSense devices on the network",
	Long: `Scan for AmbiSense devices using mDNS/DNS-SD discovery.

Devices advertise a generic HTTP service and are recognized by their
"ambisense-" hostname prefix. Discovered devices are remembered so later
commands can omit --device.`,
	Example: `  # Scan for 10 seconds (default)
  ambisense-bridge scan

  # Quick 3-second scan
  ambisense-bridge scan --scan-timeout 3

  # Block until a specific device announces itself
  ambisense-bridge scan --wait-for ambisense-living`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 10, "Scan timeout in seconds")
	scanCmd.Flags().StringVar(&waitForName, "wait-for", "", "Wait for a device with this instance name instead of scanning")
}

func runScan(cmd *cobra.Command, args []string) error {
	if waitForName != "" {
		return runWaitFor(cmd, waitForName)
	}

	fmt.Printf("Scanning for AmbiSense devices (timeout: %ds)...\n\n", scanTimeout)

	devices, err := discovery.ScanForDevices(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the device is powered on and connected to WiFi")
		fmt.Println("  - Verify your computer is on the same network as the device")
		fmt.Println("  - Try increasing --scan-timeout for slower networks")
		fmt.Println("  - Use --device flag to specify the IP manually if discovery fails")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(devices))

	registry, regErr := config.LoadRegistry()
	for i, dev := range devices {
		fmt.Printf("%d. %s\n", i+1, dev.Hostname)
		fmt.Printf("   IP: %s:%d\n", dev.IP, dev.Port)
		if len(dev.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", dev.Metadata)
		}
		fmt.Println()

		if regErr == nil {
			registry.UpdateLastSeen(dev.Name, dev.IP)
		}
	}
	if regErr == nil {
		if err := registry.Save(); err != nil {
			fmt.Printf("Warning: could not save device registry: %v\n", err)
		}
	}

	fmt.Println("Use 'ambisense-bridge show' to view the current snapshot")
	fmt.Println("Use 'ambisense-bridge serve' to run the bridge daemon")

	return nil
}

// runWaitFor blocks until a device with the given instance name appears,
// useful right after powering a device on.
func runWaitFor(cmd *cobra.Command, name string) error {
	fmt.Printf("Waiting for %s (timeout: %ds)...\n", name, scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second

	dev, err := scanner.WaitForDeviceWithContext(cmd.Context(), name)
	if err != nil {
		return err
	}

	fmt.Printf("Found %s at %s:%d\n", dev.Hostname, dev.IP, dev.Port)

	if registry, regErr := config.LoadRegistry(); regErr == nil {
		registry.UpdateLastSeen(dev.Name, dev.IP)
		if err := registry.Save(); err != nil {
			fmt.Printf("Warning: could not save device registry: %v\n", err)
		}
	}
	return nil
}

// showCmd fetches and prints the current snapshot
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch and display the device's current state",
	Example: `  # Human-readable snapshot
  ambisense-bridge show --device 192.168.1.57

  # JSON for scripting
  ambisense-bridge show --device 192.168.1.57 --format json`,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	b, err := newBridge()
	if err != nil {
		return err
	}

	snap, err := b.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("device unreachable: %s", device.GetShortErrorMessage(err))
	}

	if outputFormat == "json" {
		body := params.SemanticFields(snap.Settings)
		body["distance_cm"] = snap.DistanceCm
		data, err := json.MarshalIndent(body, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printSnapshot(snap)
	return nil
}

func printSnapshot(snap state.Snapshot) {
	s := snap.Settings

	fmt.Println("=== Sensor ===")
	fmt.Printf("Distance:          %d cm\n", snap.DistanceCm)
	fmt.Printf("Detection range:   %d - %d cm\n", s.MinDistanceCm, s.MaxDistanceCm)
	fmt.Println()

	fmt.Println("=== Light ===")
	fmt.Printf("Mode:              %s\n", params.LightModeName(s.LightMode))
	fmt.Printf("Brightness:        %d\n", s.Brightness)
	fmt.Printf("Color:             RGB(%d, %d, %d)\n", s.Red, s.Green, s.Blue)
	fmt.Printf("Strip:             %d LEDs, span %d, shift %d, trail %d\n",
		s.NumLeds, s.MovingLightSpan, s.CenterShift, s.TrailLength)
	fmt.Printf("Background mode:   %v\n", s.BackgroundMode)
	fmt.Printf("Directional light: %v\n", s.DirectionalLight)
	fmt.Println()

	fmt.Println("=== Effects ===")
	fmt.Printf("Speed:             %d\n", s.EffectSpeed)
	fmt.Printf("Intensity:         %d\n", s.EffectIntensity)
	fmt.Println()

	fmt.Println("=== Motion Smoothing ===")
	fmt.Printf("Enabled:           %v\n", s.MotionSmoothingEnabled)
	fmt.Printf("Position factor:   %.2f\n", s.PositionSmoothingFactor)
	fmt.Printf("Velocity factor:   %.2f\n", s.VelocitySmoothingFactor)
	fmt.Printf("Prediction:        %.2f\n", s.PredictionFactor)
	fmt.Printf("P gain:            %.2f\n", s.PositionPGain)
	fmt.Printf("I gain:            %.3f\n", s.PositionIGain)
}

// setCmd applies a batch of field updates
var setCmd = &cobra.Command{
	Use:   "set field=value [field=value...]",
	Short: "Apply setting updates to the device",
	Long: `Apply one or more setting updates in a single batch.

Fields use semantic names (min_distance, brightness, rgb_color,
light_mode, effect_speed, motion_smoothing, ...). Values are coerced and
clamped to the documented range. rgb_color takes three comma-separated
components; light_mode accepts a mode name or numeric code. Booleans
accept true/false, on/off, 1/0.`,
	Example: `  ambisense-bridge set brightness=200
  ambisense-bridge set rgb_color=255,80,0 light_mode=effect effect_speed=75
  ambisense-bridge set motion_smoothing=on position_smoothing_factor=0.25`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	fields, err := parseFieldArgs(args)
	if err != nil {
		return err
	}

	b, err := newBridge()
	if err != nil {
		return err
	}

	result := b.ApplyUpdates(cmd.Context(), fields)
	if !result.Success {
		names := make([]string, 0, len(result.FieldErrors))
		for field := range result.FieldErrors {
			names = append(names, field)
		}
		sort.Strings(names)
		for _, field := range names {
			fmt.Printf("  %s: %s\n", field, device.GetShortErrorMessage(result.FieldErrors[field]))
		}
		return fmt.Errorf("%d of %d field(s) failed to apply", len(result.FieldErrors), len(fields))
	}

	fmt.Printf("Applied %d field(s); device state refreshed.\n", len(fields))
	return nil
}

// parseFieldArgs converts "field=value" arguments into a semantic field
// map. rgb_color is split into components here; everything else is left
// as a string for the translator's coercion.
func parseFieldArgs(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		name, value, found := strings.Cut(arg, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid argument %q: expected field=value", arg)
		}

		if name == params.FieldRGBColor {
			parts := strings.Split(value, ",")
			if len(parts) != 3 {
				return nil, fmt.Errorf("rgb_color needs 3 comma-separated components, got %q", value)
			}
			rgb := make([]int, 3)
			for i, part := range parts {
				n, err := strconv.Atoi(strings.TrimSpace(part))
				if err != nil {
					return nil, fmt.Errorf("rgb_color component %q is not an integer", part)
				}
				rgb[i] = n
			}
			fields[name] = rgb
			continue
		}

		fields[name] = value
	}
	return fields, nil
}

// applyAllCmd resubmits the full current configuration
var applyAllCmd = &cobra.Command{
	Use:   "apply-all",
	Short: "Re-apply the full current configuration to the device",
	Long: `Fetch the current snapshot and resubmit every setting to the device.

Useful after the device reboots to factory defaults: the bridge pushes
its last known configuration back in one batch.`,
	RunE: runApplyAll,
}

func runApplyAll(cmd *cobra.Command, args []string) error {
	b, err := newBridge()
	if err != nil {
		return err
	}

	// Populate the snapshot first so we re-apply real state, not defaults
	if _, err := b.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("device unreachable: %s", device.GetShortErrorMessage(err))
	}

	result := b.ApplyAllSettings(cmd.Context())
	if !result.Success {
		return fmt.Errorf("%d field(s) failed to apply", len(result.FieldErrors))
	}

	fmt.Println("Full configuration re-applied.")
	return nil
}

// monitorCmd shows a live dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal dashboard of the device snapshot",
	RunE:  runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	host, err := resolveHost()
	if err != nil {
		return err
	}

	client := device.NewClient(host, devicePort)
	client.SetTimeout(time.Duration(requestTimeout) * time.Second)
	b := bridge.New(client)

	program := tea.NewProgram(monitor.New(b, host))
	_, err = program.Run()
	return err
}
