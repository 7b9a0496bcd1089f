package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hautomata/jellybridge/internal/config"
	"github.com/hautomata/jellybridge/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage JellyBridge configuration",
		Long: `Commands for managing JellyBridge configuration.

The config file is stored at: ~/.config/jellybridge/config.toml

Examples:
  jellybridge config init              # Create default config file
  jellybridge config show              # Display current configuration
  jellybridge config test              # Test the server connection
  jellybridge config path              # Show config file path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigTestCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Long: `Create a new configuration file with default values.

The config file will be created at ~/.config/jellybridge/config.toml
Edit this file to set your server URL and credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ConfigExists() && !force {
				path, _ := paths.ConfigPath()
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			path, _ := paths.ConfigPath()
			fmt.Printf("Created config file: %s\n", path)
			fmt.Println("Edit it to set your server URL and credentials.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			shown := *cfg
			if shown.Server.Password != "" {
				shown.Server.Password = "********"
			}
			if shown.Server.APIKey != "" {
				shown.Server.APIKey = "********"
			}
			fmt.Print(shown.ToTOML())
			return nil
		},
	}
}

func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the server connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			pub, err := client.GetPublicInfo()
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}
			if err := client.Ping(); err != nil {
				return fmt.Errorf("credentials rejected: %w", err)
			}

			fmt.Printf("Connected to %s (Jellyfin %s)\n", pub.ServerName, pub.Version)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := paths.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}
