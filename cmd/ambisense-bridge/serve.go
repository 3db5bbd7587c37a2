package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/techposts/ambisense-bridge/internal/bridge"
	"github.com/techposts/ambisense-bridge/internal/config"
	"github.com/techposts/ambisense-bridge/internal/device"
	"github.com/techposts/ambisense-bridge/internal/discovery"
	"github.com/techposts/ambisense-bridge/internal/logging"
	"github.com/techposts/ambisense-bridge/internal/mqtt"
	"github.com/techposts/ambisense-bridge/internal/server"
	"github.com/techposts/ambisense-bridge/internal/state"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge daemon",
	Long: `Run the bridge as a long-lived daemon.

The daemon polls the device on a fixed interval into a reconciled
snapshot. Depending on the config file it also republishes snapshots to
an MQTT broker (with Home Assistant discovery) and serves a local HTTP
API with a websocket snapshot stream.

Without --config, the daemon needs at least --device; MQTT and the HTTP
API stay disabled.`,
	Example: `  # Minimal: poll a device, no outputs beyond logs
  AMBISENSE_LOG_LEVEL=info ambisense-bridge serve --device 192.168.1.57

  # Full setup from a config file
  ambisense-bridge serve --config /etc/ambisense/bridge.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serveConfig()
	if err != nil {
		return err
	}

	if cfg.LogLevel != "" {
		if err := logging.Initialize(cfg.LogLevel); err != nil {
			return err
		}
	}

	client := device.NewClient(cfg.Device.Host, cfg.Device.Port)
	client.SetTimeout(cfg.Timeout())
	b := bridge.New(client, bridge.WithPollInterval(cfg.PollInterval()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publisher *mqtt.Publisher
	if cfg.MQTT.Enabled {
		publisher = mqtt.New(cfg.MQTT, deviceName(cfg), func(fields map[string]any) {
			cmdCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			b.ApplyUpdates(cmdCtx, fields)
		})
		b.Subscribe(func(snap state.Snapshot, available bool) {
			publisher.PublishState(snap, available)
		})
		if err := publisher.Connect(); err != nil {
			return err
		}
		defer publisher.Close()
	}

	var srv *server.Server
	serverErr := make(chan error, 1)
	if cfg.API.Enabled {
		srv = server.New(b, cfg.API.Listen)
		go func() {
			serverErr <- srv.ListenAndServe()
		}()
	}

	fmt.Printf("Bridge running for %s (poll interval %s). Press Ctrl+C to stop.\n",
		cfg.Device.Host, cfg.PollInterval())

	runErr := make(chan error, 1)
	go func() {
		runErr <- b.Run(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		stop()
		<-runErr
		return fmt.Errorf("HTTP API failed: %w", err)
	case err := <-runErr:
		if err != nil && ctx.Err() == nil {
			return err
		}
	}

	fmt.Println("\nShutting down...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("HTTP API shutdown incomplete")
		}
	}

	return nil
}

// serveConfig builds the effective config from --config or from the
// command-line flags.
func serveConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	host, err := resolveHost()
	if err != nil {
		// Last resort: a short discovery scan
		host, err = discoverHost()
		if err != nil {
			return nil, err
		}
	}

	cfg := config.DefaultConfig()
	cfg.Device.Host = host
	cfg.Device.Port = devicePort
	cfg.Device.TimeoutSeconds = requestTimeout
	return cfg, nil
}

// discoverHost scans the network for a device when neither --device nor
// the registry names one.
func discoverHost() (string, error) {
	fmt.Println("No device configured, scanning the network...")
	devices, err := discovery.ScanForDevices(10 * time.Second)
	if err != nil {
		return "", fmt.Errorf("discovery scan failed: %w", err)
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("no AmbiSense devices found: pass --device or use a config file")
	}

	dev := devices[0]
	fmt.Printf("Using %s\n", dev)

	if registry, regErr := config.LoadRegistry(); regErr == nil {
		registry.UpdateLastSeen(dev.Name, dev.IP)
		_ = registry.Save()
	}

	return dev.IP, nil
}

// deviceName derives a stable MQTT identity from the configured host.
// "ambisense-living.local" and "192.168.1.57" both become valid topic
// segments.
func deviceName(cfg *config.Config) string {
	host := strings.ToLower(strings.TrimSuffix(cfg.Device.Host, ".local"))
	var b strings.Builder
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
