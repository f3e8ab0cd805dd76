package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hassbridge/sonarrbridge/qbittorrent"
	"github.com/hassbridge/sonarrbridge/sonarr"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connections to Sonarr and the optional integrations",
	Long:  `Test the connection to your Sonarr instance and display basic information.`,
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Printf("Testing connection to Sonarr at %s...\n", cfg.Sonarr.URL)

	client, err := sonarr.NewClient(ctx, cfg.Sonarr.URL, cfg.Sonarr.APIKey, cfg.Sonarr.Timeout, logger)
	if err != nil {
		return err
	}

	fmt.Println("✓ Connection successful!")

	app, err := client.GetApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to get application status: %w", err)
	}

	fmt.Printf("\n%s Status:\n", app.Name())
	fmt.Printf("- Version: %s\n", app.Version())
	fmt.Printf("- Disks: %d\n", len(app.Disks))

	series, err := client.GetSeries(ctx)
	if err != nil {
		return fmt.Errorf("failed to get series: %w", err)
	}

	fmt.Printf("- Total series: %d\n", len(series))

	// Test qBittorrent if configured
	if cfg.Qbittorrent.Enabled {
		fmt.Printf("\nTesting connection to qBittorrent at %s...\n", cfg.Qbittorrent.URL)

		qbitClient, err := qbittorrent.NewClient(ctx, cfg.Qbittorrent.URL, cfg.Qbittorrent.Username, cfg.Qbittorrent.Password, logger)
		if err != nil {
			return err
		}

		transfers, err := qbitClient.GetTransfers(ctx)
		if err != nil {
			return err
		}

		fmt.Println("✓ qBittorrent connection successful!")
		fmt.Printf("- Torrents: %d\n", len(transfers))
	} else {
		fmt.Println("\nqBittorrent integration: Disabled")
	}

	if cfg.MQTT.Enabled {
		fmt.Printf("\nMQTT broker: %s (discovery prefix %q)\n", cfg.MQTT.Broker, cfg.MQTT.DiscoveryPrefix)
	} else {
		fmt.Println("\nMQTT publishing: Disabled")
	}

	return nil
}
