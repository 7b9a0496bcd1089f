package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hautomata/jellybridge/internal/jellyfin"
)

// newTransportCmds returns one command per transport action.
func newTransportCmds() []*cobra.Command {
	return []*cobra.Command{
		newPlaystateCmd("play", "Resume playback on a device", jellyfin.CommandUnpause),
		newPlaystateCmd("pause", "Pause playback on a device", jellyfin.CommandPause),
		newPlaystateCmd("stop", "Stop playback on a device", jellyfin.CommandStop),
		newPlaystateCmd("next", "Skip to the next track on a device", jellyfin.CommandNextTrack),
		newPlaystateCmd("prev", "Skip to the previous track on a device", jellyfin.CommandPreviousTrack),
		newSeekCmd(),
	}
}

func newPlaystateCmd(use, short string, command jellyfin.PlaystateCommand) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <device>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, session, err := findSession(args[0])
			if err != nil {
				return err
			}
			if err := client.SendPlaystate(session.ID, command, 0); err != nil {
				return fmt.Errorf("command failed: %w", err)
			}
			fmt.Printf("Sent %s to %s\n", use, session.DeviceName)
			return nil
		},
	}
}

func newSeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seek <device> <seconds>",
		Short: "Seek to a position on a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[1], err)
			}

			client, session, err := findSession(args[0])
			if err != nil {
				return err
			}
			if err := client.SendPlaystate(session.ID, jellyfin.CommandSeek, seconds); err != nil {
				return fmt.Errorf("seek failed: %w", err)
			}
			fmt.Printf("Seeked %s to %.0fs\n", session.DeviceName, seconds)
			return nil
		},
	}
}

// findSession matches a device by session key, device name, or client
// name, case-insensitively.
func findSession(query string) (*jellyfin.Client, *jellyfin.Session, error) {
	client, err := newClient()
	if err != nil {
		return nil, nil, err
	}

	sessions, err := client.GetSessions()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sessions: %w", err)
	}

	var matches []jellyfin.Session
	for _, s := range sessions {
		if strings.EqualFold(s.Key(), query) ||
			strings.EqualFold(s.DeviceName, query) ||
			strings.EqualFold(s.Client, query) {
			matches = append(matches, s)
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil, fmt.Errorf("no session matches %q (try 'jellybridge sessions')", query)
	case 1:
		if !matches[0].SupportsRemoteControl {
			return nil, nil, fmt.Errorf("device %q does not accept remote control", matches[0].DeviceName)
		}
		return client, &matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Key()
		}
		return nil, nil, fmt.Errorf("%q matches multiple sessions: %s", query, strings.Join(names, ", "))
	}
}
