package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hautomata/jellybridge/internal/api"
	"github.com/hautomata/jellybridge/internal/bridge"
	"github.com/hautomata/jellybridge/internal/config"
	"github.com/hautomata/jellybridge/internal/devices"
	"github.com/hautomata/jellybridge/internal/history"
	"github.com/hautomata/jellybridge/internal/jellyfin"
	"github.com/hautomata/jellybridge/internal/logging"
	"github.com/hautomata/jellybridge/internal/paths"
)

var (
	version = "dev" // Set by build flags: -ldflags="-X main.version=1.0.0"
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jellybridged",
		Short: "JellyBridge daemon service",
		Long: `JellyBridged tracks playback sessions on a Jellyfin server over its
websocket channel and exposes the devices as a local REST API for home
automation frontends.`,
		RunE: runDaemon,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

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

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return fmt.Errorf("unable to create logger: %w", err)
	}
	defer logger.Close()

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
		return fmt.Errorf("unable to create client: %w", err)
	}

	if cfg.Server.Username != "" {
		if err := client.Login(cfg.Server.Username, cfg.Server.Password); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	info, err := client.GetSystemInfo()
	if err != nil {
		return fmt.Errorf("unable to reach server: %w", err)
	}
	logger.Info("daemon", "connected to server",
		logging.F("name", info.ServerName),
		logging.F("version", info.Version))

	var store *history.Store
	if cfg.History.Enabled {
		if cfg.History.File != "" {
			store, err = history.OpenPath(cfg.History.File)
		} else {
			store, err = history.Open()
		}
		if err != nil {
			return fmt.Errorf("unable to open history database: %w", err)
		}
		defer store.Close()
		logger.Info("daemon", "playback history enabled", logging.F("path", store.Path()))
	}

	manager := devices.NewManager(client, client.ClientID())
	br := bridge.New(client, manager, store, logger, bridge.Options{
		PollInterval: cfg.Bridge.PollIntervalDuration(),
		MaxBackoff:   cfg.Bridge.ReconnectMaxBackoff(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	br.Start(ctx)
	defer br.Stop()

	if cfgFile == "" {
		watchConfig(cfg, logger)
	}

	apiServer := api.NewServer(manager, client, br, store, logger, version)
	apiServer.SetCORSOrigins(cfg.API.CORSOrigins)
	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      apiServer.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("daemon", "api listening", logging.F("addr", cfg.API.Addr))
		errChan <- httpServer.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("daemon", "received shutdown signal", logging.F("signal", sig.String()))
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	return nil
}

// watchConfig applies logging level changes from config edits without a
// restart. Connection settings still need one.
func watchConfig(cfg *config.Config, logger *logging.Logger) {
	configPath, err := paths.ConfigPath()
	if err != nil {
		return
	}
	err = config.Watch(configPath, func(next *config.Config) {
		if next.Logging.Level != cfg.Logging.Level {
			logger.SetLevel(logging.ParseLevel(next.Logging.Level))
			logger.Info("daemon", "log level changed", logging.F("level", next.Logging.Level))
		}
	})
	if err != nil {
		logger.Warn("daemon", "config watch unavailable", logging.F("error", err))
	}
}
