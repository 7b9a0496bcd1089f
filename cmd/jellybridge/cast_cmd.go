package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var itemTypes []string

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search the media library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			items, err := client.SearchItems(args[0], itemTypes...)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if len(items) == 0 {
				fmt.Println("No items found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tNAME")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\n", item.ID, item.Type, item.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringSliceVarP(&itemTypes, "type", "t", nil, "restrict to item types (Movie, Series, Audio, ...)")
	return cmd
}

func newCastCmd() *cobra.Command {
	var itemTypes []string

	cmd := &cobra.Command{
		Use:   "cast <device> <title>",
		Short: "Play a library item on a device",
		Long: `Look an item up by title and start playing it on a device.

The title match ignores case. When the title is ambiguous, narrow it
with --type:

  jellybridge cast "Living Room" "The Matrix"
  jellybridge cast shield-tv "Dark Side of the Moon" --type MusicAlbum`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, session, err := findSession(args[0])
			if err != nil {
				return err
			}

			item, err := client.FindItemByName(args[1], itemTypes...)
			if err != nil {
				return fmt.Errorf("lookup failed: %w", err)
			}

			if err := client.Play(session.ID, item.ID); err != nil {
				return fmt.Errorf("playback failed: %w", err)
			}
			fmt.Printf("Playing %q on %s\n", item.Name, session.DeviceName)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&itemTypes, "type", "t", nil, "restrict to item types (Movie, Series, Audio, ...)")
	return cmd
}
