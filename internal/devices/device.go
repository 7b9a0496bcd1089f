// Package devices shadows Jellyfin playback sessions into a cache of
// media-player devices with home-automation friendly state.
package devices

import (
	"sync"

	"github.com/hautomata/jellybridge/internal/jellyfin"
)

// State is the coarse playstate a home-automation platform understands.
type State string

const (
	StatePlaying State = "Playing"
	StatePaused  State = "Paused"
	StateIdle    State = "Idle"
	StateOff     State = "Off"
)

// Controller is the slice of the Jellyfin client a device needs to send
// transport commands and resolve artwork.
type Controller interface {
	SendPlaystate(sessionID string, cmd jellyfin.PlaystateCommand, seekSeconds float64) error
	Play(sessionID string, itemIDs ...string) error
	ArtworkURL(itemID, imageType string, maxWidth int) string
}

// Device is a cached representation of one session plus an activity
// flag. A device goes inactive when the server stops reporting its
// session; the cache entry survives so the entity can come back as the
// same device.
type Device struct {
	ctrl Controller

	mu      sync.RWMutex
	session jellyfin.Session
	active  bool
}

func newDevice(session jellyfin.Session, ctrl Controller) *Device {
	return &Device{
		ctrl:    ctrl,
		session: session,
		active:  true,
	}
}

func (d *Device) update(session jellyfin.Session) {
	d.mu.Lock()
	d.session = session
	d.mu.Unlock()
}

func (d *Device) setActive(active bool) {
	d.mu.Lock()
	d.active = active
	d.mu.Unlock()
}

// Session returns a copy of the raw session snapshot.
func (d *Device) Session() jellyfin.Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session
}

// Active reports whether the server still lists this device's session.
func (d *Device) Active() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}

// Key returns the stable cache key (DeviceId.Client).
func (d *Device) Key() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session.Key()
}

// SessionID returns the server-side session id.
func (d *Device) SessionID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session.ID
}

// Name returns the device name reported by the client.
func (d *Device) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session.DeviceName
}

// ClientName returns the client application name.
func (d *Device) ClientName() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session.Client
}

// Username returns the user logged into the session.
func (d *Device) Username() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session.UserName
}

// SupportsRemoteControl reports whether transport commands will work.
func (d *Device) SupportsRemoteControl() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session.SupportsRemoteControl
}

// State maps the session onto the four-state media-player model:
// inactive devices are Off, active ones Idle unless something is
// playing, and playing sessions split on the paused flag.
func (d *Device) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sessionState(d.session, d.active)
}

func sessionState(session jellyfin.Session, active bool) State {
	if !active {
		return StateOff
	}
	if session.NowPlayingItem == nil {
		return StateIdle
	}
	if session.PlayState != nil && session.PlayState.IsPaused {
		return StatePaused
	}
	return StatePlaying
}

// NowPlaying returns the currently playing item, or nil.
func (d *Device) NowPlaying() *jellyfin.NowPlaying {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.session.NowPlayingItem
}

// MediaTitle returns the title of the playing item.
func (d *Device) MediaTitle() string {
	if np := d.NowPlaying(); np != nil {
		return np.Name
	}
	return ""
}

// MediaID returns the id of the playing item.
func (d *Device) MediaID() string {
	if np := d.NowPlaying(); np != nil {
		return np.ID
	}
	return ""
}

// MediaType returns the Jellyfin item type of the playing item.
func (d *Device) MediaType() string {
	if np := d.NowPlaying(); np != nil {
		return np.Type
	}
	return ""
}

// SeriesTitle returns the series name for episodes.
func (d *Device) SeriesTitle() string {
	if np := d.NowPlaying(); np != nil {
		return np.SeriesName
	}
	return ""
}

// Season returns the season number for episodes, 0 when unknown.
func (d *Device) Season() int {
	if np := d.NowPlaying(); np != nil && np.ParentIndexNumber != nil {
		return *np.ParentIndexNumber
	}
	return 0
}

// Episode returns the episode number, 0 when unknown.
func (d *Device) Episode() int {
	if np := d.NowPlaying(); np != nil && np.IndexNumber != nil {
		return *np.IndexNumber
	}
	return 0
}

// AlbumName returns the album for music tracks.
func (d *Device) AlbumName() string {
	if np := d.NowPlaying(); np != nil {
		return np.Album
	}
	return ""
}

// Artist returns the first listed artist for music tracks.
func (d *Device) Artist() string {
	if np := d.NowPlaying(); np != nil && len(np.Artists) > 0 {
		return np.Artists[0]
	}
	return ""
}

// AlbumArtist returns the album artist for music tracks.
func (d *Device) AlbumArtist() string {
	if np := d.NowPlaying(); np != nil {
		return np.AlbumArtist
	}
	return ""
}

// Position returns the playback position in seconds.
func (d *Device) Position() (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.session.PlayState == nil || d.session.PlayState.PositionTicks == nil {
		return 0, false
	}
	return float64(*d.session.PlayState.PositionTicks) / jellyfin.TicksPerSecond, true
}

// Runtime returns the playing item's total runtime in seconds.
func (d *Device) Runtime() (float64, bool) {
	if np := d.NowPlaying(); np != nil && np.RunTimeTicks != nil {
		return float64(*np.RunTimeTicks) / jellyfin.TicksPerSecond, true
	}
	return 0, false
}

// PercentPlayed returns playback progress as 0-100.
func (d *Device) PercentPlayed() (float64, bool) {
	pos, ok := d.Position()
	if !ok {
		return 0, false
	}
	runtime, ok := d.Runtime()
	if !ok || runtime == 0 {
		return 0, false
	}
	return pos / runtime * 100, true
}

// ArtworkURL returns the image URL for the playing item, preferring the
// Thumb tag over Primary. Empty when nothing is playing.
func (d *Device) ArtworkURL() string {
	np := d.NowPlaying()
	if np == nil {
		return ""
	}

	imageType := ""
	if _, ok := np.ImageTags["Thumb"]; ok {
		imageType = "Thumb"
	} else if _, ok := np.ImageTags["Primary"]; ok {
		imageType = "Primary"
	}
	if imageType == "" {
		return ""
	}
	return d.ctrl.ArtworkURL(np.ID, imageType, 500)
}

// Play resumes playback.
func (d *Device) Play() error {
	return d.ctrl.SendPlaystate(d.SessionID(), jellyfin.CommandUnpause, 0)
}

// Pause pauses playback.
func (d *Device) Pause() error {
	return d.ctrl.SendPlaystate(d.SessionID(), jellyfin.CommandPause, 0)
}

// Stop stops playback.
func (d *Device) Stop() error {
	return d.ctrl.SendPlaystate(d.SessionID(), jellyfin.CommandStop, 0)
}

// NextTrack skips forward.
func (d *Device) NextTrack() error {
	return d.ctrl.SendPlaystate(d.SessionID(), jellyfin.CommandNextTrack, 0)
}

// PreviousTrack skips backward.
func (d *Device) PreviousTrack() error {
	return d.ctrl.SendPlaystate(d.SessionID(), jellyfin.CommandPreviousTrack, 0)
}

// Seek jumps to a position in seconds.
func (d *Device) Seek(positionSeconds float64) error {
	return d.ctrl.SendPlaystate(d.SessionID(), jellyfin.CommandSeek, positionSeconds)
}

// PlayMedia starts playing the given item on this device.
func (d *Device) PlayMedia(itemIDs ...string) error {
	return d.ctrl.Play(d.SessionID(), itemIDs...)
}
