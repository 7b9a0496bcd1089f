package jellyfin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PlaystateCommand is a transport command sent to a session.
type PlaystateCommand string

const (
	CommandUnpause       PlaystateCommand = "Unpause"
	CommandPause         PlaystateCommand = "Pause"
	CommandStop          PlaystateCommand = "Stop"
	CommandNextTrack     PlaystateCommand = "NextTrack"
	CommandPreviousTrack PlaystateCommand = "PreviousTrack"
	CommandSeek          PlaystateCommand = "Seek"
)

// ParsePlaystateCommand maps a lowercase wire name to a command.
func ParsePlaystateCommand(s string) (PlaystateCommand, error) {
	switch strings.ToLower(s) {
	case "play", "unpause":
		return CommandUnpause, nil
	case "pause":
		return CommandPause, nil
	case "stop":
		return CommandStop, nil
	case "next", "nexttrack":
		return CommandNextTrack, nil
	case "previous", "previoustrack":
		return CommandPreviousTrack, nil
	case "seek":
		return CommandSeek, nil
	default:
		return "", fmt.Errorf("unknown playstate command %q", s)
	}
}

// GetSessions returns all sessions the server currently knows about.
func (c *Client) GetSessions() ([]Session, error) {
	var sessions []Session
	if err := c.get("/Sessions", &sessions); err != nil {
		return nil, fmt.Errorf("getting sessions: %w", err)
	}
	return sessions, nil
}

// GetActiveSessions returns sessions that are currently playing media.
func (c *Client) GetActiveSessions() ([]Session, error) {
	sessions, err := c.GetSessions()
	if err != nil {
		return nil, err
	}

	active := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		if session.NowPlayingItem != nil {
			active = append(active, session)
		}
	}
	return active, nil
}

// SendPlaystate sends a transport command to a session. seekSeconds is
// only used for Seek.
func (c *Client) SendPlaystate(sessionID string, cmd PlaystateCommand, seekSeconds float64) error {
	endpoint := fmt.Sprintf("/Sessions/%s/Playing/%s", url.PathEscape(sessionID), cmd)

	if cmd == CommandSeek {
		query := url.Values{}
		query.Set("SeekPositionTicks", strconv.FormatInt(int64(seekSeconds*TicksPerSecond), 10))
		query.Set("static", "true")
		endpoint += "?" + query.Encode()
	}

	if err := c.post(endpoint, nil, nil); err != nil {
		return fmt.Errorf("sending %s to session %s: %w", cmd, sessionID, err)
	}
	return nil
}

// Play instructs a session to start playing the given items immediately.
func (c *Client) Play(sessionID string, itemIDs ...string) error {
	query := url.Values{}
	query.Set("playCommand", "PlayNow")
	query.Set("itemIds", strings.Join(itemIDs, ","))

	endpoint := fmt.Sprintf("/Sessions/%s/Playing?%s", url.PathEscape(sessionID), query.Encode())
	if err := c.post(endpoint, nil, nil); err != nil {
		return fmt.Errorf("playing on session %s: %w", sessionID, err)
	}
	return nil
}
