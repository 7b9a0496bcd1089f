package devices

import (
	"testing"

	"github.com/hautomata/jellybridge/internal/jellyfin"
)

func TestDeviceAccessors(t *testing.T) {
	season, episode := 2, 5
	runtime := int64(1200 * jellyfin.TicksPerSecond)
	pos := int64(300 * jellyfin.TicksPerSecond)

	session := jellyfin.Session{
		ID:         "sess-1",
		DeviceID:   "d1",
		DeviceName: "Living Room TV",
		Client:     "Android TV",
		UserName:   "media",
		NowPlayingItem: &jellyfin.NowPlaying{
			ID:                "item-1",
			Name:              "The One Where It Compiles",
			Type:              "Episode",
			SeriesName:        "Gophers",
			ParentIndexNumber: &season,
			IndexNumber:       &episode,
			RunTimeTicks:      &runtime,
			ImageTags:         map[string]string{"Thumb": "t1", "Primary": "p1"},
		},
		PlayState: &jellyfin.PlayState{PositionTicks: &pos},
	}

	d := newDevice(session, &fakeController{})

	if d.Name() != "Living Room TV" {
		t.Errorf("Name() = %q", d.Name())
	}
	if d.MediaTitle() != "The One Where It Compiles" {
		t.Errorf("MediaTitle() = %q", d.MediaTitle())
	}
	if d.SeriesTitle() != "Gophers" {
		t.Errorf("SeriesTitle() = %q", d.SeriesTitle())
	}
	if d.Season() != 2 || d.Episode() != 5 {
		t.Errorf("Season/Episode = %d/%d, want 2/5", d.Season(), d.Episode())
	}

	if posSec, ok := d.Position(); !ok || posSec != 300 {
		t.Errorf("Position() = %v, %v, want 300, true", posSec, ok)
	}
	if runtimeSec, ok := d.Runtime(); !ok || runtimeSec != 1200 {
		t.Errorf("Runtime() = %v, %v, want 1200, true", runtimeSec, ok)
	}
	if pct, ok := d.PercentPlayed(); !ok || pct != 25 {
		t.Errorf("PercentPlayed() = %v, %v, want 25, true", pct, ok)
	}

	// Thumb tag wins over Primary.
	if url := d.ArtworkURL(); url != "http://jf/Items/item-1/Images/Thumb?maxWidth=500" {
		t.Errorf("ArtworkURL() = %q", url)
	}
}

func TestDeviceAccessors_IdleSession(t *testing.T) {
	d := newDevice(idleSession("d1", "Web"), &fakeController{})

	if d.MediaTitle() != "" || d.MediaID() != "" {
		t.Error("expected empty media fields for idle session")
	}
	if _, ok := d.Position(); ok {
		t.Error("expected no position for idle session")
	}
	if _, ok := d.PercentPlayed(); ok {
		t.Error("expected no percent for idle session")
	}
	if d.ArtworkURL() != "" {
		t.Error("expected empty artwork URL for idle session")
	}
}

func TestDeviceTransportCommands(t *testing.T) {
	ctrl := &fakeController{}
	d := newDevice(playingSession("d1", "Web", "Movie", false), ctrl)

	if err := d.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if err := d.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if err := d.Seek(42.5); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if err := d.PlayMedia("item-9"); err != nil {
		t.Fatalf("PlayMedia() error = %v", err)
	}

	want := []string{"sess-d1:Pause", "sess-d1:Unpause", "sess-d1:Seek"}
	if len(ctrl.commands) != len(want) {
		t.Fatalf("commands = %v, want %v", ctrl.commands, want)
	}
	for i := range want {
		if ctrl.commands[i] != want[i] {
			t.Errorf("commands[%d] = %q, want %q", i, ctrl.commands[i], want[i])
		}
	}
	if len(ctrl.seeks) != 1 || ctrl.seeks[0] != 42.5 {
		t.Errorf("seeks = %v, want [42.5]", ctrl.seeks)
	}
	if len(ctrl.played) != 1 || ctrl.played[0][1] != "item-9" {
		t.Errorf("played = %v", ctrl.played)
	}
}
