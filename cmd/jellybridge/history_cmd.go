package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hautomata/jellybridge/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		device string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded playback history",
		Long: `Show playback events recorded by the daemon.

The daemon writes one event per state transition: a device starting,
pausing, resuming, or stopping playback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				store *history.Store
				err   error
			)
			if dbPath != "" {
				store, err = history.OpenPath(dbPath)
			} else {
				store, err = history.Open()
			}
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}
			defer store.Close()

			var events []history.Event
			if device != "" {
				events, err = store.ForDevice(device, limit)
			} else {
				events, err = store.Recent(limit)
			}
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}

			if len(events) == 0 {
				fmt.Println("No playback history recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tDEVICE\tUSER\tSTATE\tITEM\tPOSITION")
			for _, e := range events {
				item := e.ItemName
				if item == "" {
					item = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0fs\n",
					e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
					e.DeviceName, e.Username, e.State, item, e.PositionS)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 25, "maximum events to show")
	cmd.Flags().StringVarP(&device, "device", "d", "", "filter by device key")
	cmd.Flags().StringVar(&dbPath, "db", "", "history database path")
	return cmd
}
