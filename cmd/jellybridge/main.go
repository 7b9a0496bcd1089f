package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hautomata/jellybridge/internal/config"
	"github.com/hautomata/jellybridge/internal/jellyfin"
)

var (
	version = "dev" // Set by build flags: -ldflags="-X main.version=1.0.0"
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jellybridge",
		Short: "Jellyfin session bridge for home automation",
		Long: `JellyBridge tracks playback sessions on a Jellyfin server and exposes
every playing device for monitoring and remote control.

Features:
  - Live session tracking over the server websocket channel
  - Transport control: play, pause, stop, seek, next, previous
  - Media library browsing
  - Playback history recorded by the daemon`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/jellybridge/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newCastCmd())
	rootCmd.AddCommand(newTransportCmds()...)
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadPath(cfgFile)
	}
	return config.Load()
}

// newClient builds an authenticated client from the config file.
func newClient() (*jellyfin.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client, err := jellyfin.NewClient(jellyfin.Config{
		URL:       cfg.Server.URL,
		Username:  cfg.Server.Username,
		Password:  cfg.Server.Password,
		APIKey:    cfg.Server.APIKey,
		ClientID:  cfg.Server.ClientID,
		VerifySSL: cfg.Server.VerifySSL,
		Timeout:   cfg.Server.Timeout(),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Server.Username != "" {
		if err := client.Login(cfg.Server.Username, cfg.Server.Password); err != nil {
			return nil, fmt.Errorf("authentication failed: %w", err)
		}
	}
	return client, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jellybridge %s\n", version)
		},
	}
}
