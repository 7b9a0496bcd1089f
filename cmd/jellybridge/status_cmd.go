package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server and session status",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	info, err := client.GetSystemInfo()
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}

	sessions, err := client.GetSessions()
	if err != nil {
		return fmt.Errorf("failed to get sessions: %w", err)
	}

	playing := 0
	for _, s := range sessions {
		if s.NowPlayingItem != nil {
			playing++
		}
	}

	fmt.Println("JellyBridge Status")
	fmt.Println("==================")
	fmt.Printf("Server:    %s\n", info.ServerName)
	fmt.Printf("Version:   %s\n", info.Version)
	fmt.Printf("OS:        %s\n", info.OperatingSystem)
	fmt.Printf("URL:       %s\n", client.BaseURL())
	fmt.Println()
	fmt.Printf("Sessions:  %d\n", len(sessions))
	fmt.Printf("Playing:   %d\n", playing)

	return nil
}
