package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Trigger a library scan on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			if err := client.RefreshLibrary(); err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			fmt.Println("Library refresh started.")
			return nil
		},
	}
}
