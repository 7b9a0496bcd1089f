package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hautomata/jellybridge/internal/devices"
	"github.com/hautomata/jellybridge/internal/ui"
)

func newSessionsCmd() *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List active playback sessions",
		Long: `List the sessions currently connected to the server.

With --watch a live dashboard opens that refreshes continuously and
accepts transport commands for the selected device.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			manager := devices.NewManager(client, client.ClientID())

			if watch {
				return ui.Run(client, manager, interval)
			}

			sessions, err := client.GetSessions()
			if err != nil {
				return fmt.Errorf("failed to get sessions: %w", err)
			}
			manager.Apply(sessions)

			all := manager.Devices()
			if len(all) == 0 {
				fmt.Println("No sessions connected.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tDEVICE\tCLIENT\tUSER\tSTATE\tNOW PLAYING")
			for _, d := range all {
				title := d.MediaTitle()
				if title == "" {
					title = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					d.Key(), d.Name(), d.ClientName(), d.Username(), d.State(), title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "open a live dashboard")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "dashboard refresh interval")
	return cmd
}
