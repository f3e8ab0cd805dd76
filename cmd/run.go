package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hassbridge/sonarrbridge/config"
	"github.com/hassbridge/sonarrbridge/coordinator"
	"github.com/hassbridge/sonarrbridge/homeassistant"
	"github.com/hassbridge/sonarrbridge/qbittorrent"
	"github.com/hassbridge/sonarrbridge/sensor"
	"github.com/hassbridge/sonarrbridge/server"
	"github.com/hassbridge/sonarrbridge/sonarr"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge daemon",
	Long: `Run the polling coordinator, the MQTT publisher and the local HTTP API
until interrupted.`,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBridge(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create Sonarr client
	sonarrClient, err := sonarr.NewClient(ctx, cfg.Sonarr.URL, cfg.Sonarr.APIKey, cfg.Sonarr.Timeout, logger)
	if err != nil {
		return fmt.Errorf("failed to create Sonarr client: %w", err)
	}

	// Create qBittorrent client if enabled
	var torrents coordinator.TransferFetcher
	if cfg.Qbittorrent.Enabled {
		qbitClient, err := qbittorrent.NewClient(ctx, cfg.Qbittorrent.URL, cfg.Qbittorrent.Username, cfg.Qbittorrent.Password, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to create qBittorrent client, continuing without queue enrichment")
		} else {
			torrents = qbitClient
			logger.Info().Msg("qBittorrent integration enabled")
		}
	}

	coord := coordinator.New(sonarrClient, torrents, coordinator.Options{
		ScanInterval:   cfg.Bridge.ScanInterval,
		UpcomingDays:   cfg.Bridge.UpcomingDays,
		QueuePageSize:  cfg.Bridge.QueuePageSize,
		WantedPageSize: cfg.Bridge.WantedPageSize,
	}, logger)

	registry, err := buildRegistry(cfg, coord)
	if err != nil {
		return err
	}

	logger.Info().
		Int("sensors", registry.Len()).
		Dur("scan_interval", cfg.Bridge.ScanInterval).
		Msg("Starting bridge")

	g, gctx := errgroup.WithContext(ctx)

	if cfg.MQTT.Enabled {
		publisher := homeassistant.NewPublisher(homeassistant.Config{
			Broker:          cfg.MQTT.Broker,
			Username:        cfg.MQTT.Username,
			Password:        cfg.MQTT.Password,
			ClientID:        cfg.MQTT.ClientID,
			TopicPrefix:     cfg.MQTT.TopicPrefix,
			DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix,
			QoS:             byte(cfg.MQTT.QoS),
			DeviceName:      "Sonarr",
			Version:         version,
		}, registry, logger)

		if err := publisher.Connect(gctx); err != nil {
			return err
		}
		defer publisher.Close()

		coord.AddListener(publisher.HandleUpdate)
	}

	if cfg.Server.Enabled {
		srv := server.New(cfg.Server.Listen, registry, coord, logger)
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	g.Go(func() error {
		return coord.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("Bridge stopped")

	return nil
}

// buildRegistry assembles the active sensors from the built-in
// definitions, the per-sensor enabled overrides and the custom sensor
// declarations, and registers their datapoints with the coordinator.
func buildRegistry(cfg *config.Config, coord *coordinator.Coordinator) (*sensor.Registry, error) {
	var active []*sensor.Definition

	for _, def := range sensor.Builtins() {
		enabled := def.EnabledDefault
		if override, ok := cfg.Sensors.Enabled[def.Key]; ok {
			enabled = override
		}

		if enabled {
			active = append(active, def)
		}
	}

	for key := range cfg.Sensors.Enabled {
		if !knownBuiltin(key) {
			logger.Warn().Str("sensor", key).Msg("Unknown sensor key in sensors.enabled")
		}
	}

	for _, cs := range cfg.Sensors.Custom {
		def, err := sensor.NewCustom(sensor.CustomSpec{
			Key:        cs.Key,
			Name:       cs.Name,
			Icon:       cs.Icon,
			Unit:       cs.Unit,
			State:      cs.State,
			Datapoints: cs.Datapoints,
		})
		if err != nil {
			return nil, fmt.Errorf("invalid custom sensor: %w", err)
		}

		active = append(active, def)
	}

	registry, err := sensor.NewRegistry(active...)
	if err != nil {
		return nil, err
	}

	for _, def := range registry.All() {
		for _, dp := range def.Datapoints {
			coord.EnableDatapoint(dp)
		}
	}

	return registry, nil
}

func knownBuiltin(key string) bool {
	for _, def := range sensor.Builtins() {
		if def.Key == key {
			return true
		}
	}

	return false
}
