package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hautomata/jellybridge/internal/devices"
	"github.com/hautomata/jellybridge/internal/history"
	"github.com/hautomata/jellybridge/internal/jellyfin"
	"github.com/hautomata/jellybridge/internal/logging"
)

type fakeSource struct {
	mu       sync.Mutex
	sessions []jellyfin.Session
	polls    int
	pollErr  error

	listenStarted chan jellyfin.SocketEvents
}

func newFakeSource(sessions ...jellyfin.Session) *fakeSource {
	return &fakeSource{
		sessions:      sessions,
		listenStarted: make(chan jellyfin.SocketEvents, 1),
	}
}

func (f *fakeSource) GetSessions() ([]jellyfin.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	return f.sessions, nil
}

func (f *fakeSource) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *fakeSource) Listen(ctx context.Context, maxBackoff time.Duration, events jellyfin.SocketEvents) error {
	f.listenStarted <- events
	<-ctx.Done()
	return ctx.Err()
}

type fakeController struct{}

func (fakeController) SendPlaystate(sessionID string, cmd jellyfin.PlaystateCommand, seekSeconds float64) error {
	return nil
}
func (fakeController) Play(sessionID string, itemIDs ...string) error { return nil }
func (fakeController) ArtworkURL(itemID, imageType string, maxWidth int) string {
	return ""
}

func ticks(seconds int64) *int64 {
	t := seconds * jellyfin.TicksPerSecond
	return &t
}

func playingSession(deviceID string, itemID, itemName string) jellyfin.Session {
	return jellyfin.Session{
		ID:                    "sess-" + deviceID,
		DeviceID:              deviceID,
		DeviceName:            "Device " + deviceID,
		Client:                "Web",
		UserName:              "alice",
		SupportsRemoteControl: true,
		NowPlayingItem: &jellyfin.NowPlaying{
			ID:           itemID,
			Name:         itemName,
			Type:         "Movie",
			RunTimeTicks: ticks(7200),
		},
		PlayState: &jellyfin.PlayState{PositionTicks: ticks(60)},
	}
}

func pausedSession(deviceID string, itemID, itemName string) jellyfin.Session {
	s := playingSession(deviceID, itemID, itemName)
	s.PlayState.IsPaused = true
	return s
}

func TestStartPollsImmediately(t *testing.T) {
	t.Parallel()

	source := newFakeSource(playingSession("dev-1", "it-1", "The Matrix"))
	manager := devices.NewManager(fakeController{}, "bridge")
	b := New(source, manager, nil, logging.Nop(), Options{PollInterval: time.Hour})

	b.Start(context.Background())
	defer b.Stop()

	assert.Equal(t, 1, source.pollCount())
	assert.Equal(t, 1, manager.ActiveCount())
	assert.False(t, b.Connected())
}

func TestConnectedFollowsSocketEvents(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	manager := devices.NewManager(fakeController{}, "bridge")
	b := New(source, manager, nil, logging.Nop(), Options{PollInterval: time.Hour})

	b.Start(context.Background())
	defer b.Stop()

	events := <-source.listenStarted
	events.OnConnect()
	assert.True(t, b.Connected())

	events.OnDisconnect(assert.AnError)
	assert.False(t, b.Connected())
}

func TestSocketSessionsReachManager(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	manager := devices.NewManager(fakeController{}, "bridge")
	b := New(source, manager, nil, logging.Nop(), Options{PollInterval: time.Hour})

	b.Start(context.Background())
	defer b.Stop()

	events := <-source.listenStarted
	events.OnConnect()
	events.OnSessions([]jellyfin.Session{playingSession("dev-2", "it-9", "Heat")})

	d, ok := manager.Device("dev-2.Web")
	require.True(t, ok)
	assert.Equal(t, devices.StatePlaying, d.State())
}

func TestHistoryRecordsTransitionsOnce(t *testing.T) {
	t.Parallel()

	store, err := history.OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	source := newFakeSource()
	manager := devices.NewManager(fakeController{}, "bridge")
	b := New(source, manager, store, logging.Nop(), Options{PollInterval: time.Hour})

	b.Start(context.Background())
	defer b.Stop()

	playing := playingSession("dev-1", "it-1", "The Matrix")

	// Repeated Playing pushes only produce one row.
	manager.Apply([]jellyfin.Session{playing})
	manager.Apply([]jellyfin.Session{playing})
	manager.Apply([]jellyfin.Session{playing})

	events, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Playing", events[0].State)
	assert.Equal(t, "The Matrix", events[0].ItemName)
	assert.Equal(t, 60.0, events[0].PositionS)

	// Pause is a transition.
	manager.Apply([]jellyfin.Session{pausedSession("dev-1", "it-1", "The Matrix")})

	events, err = store.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Paused", events[0].State)
}

func TestHistoryRecordsItemChange(t *testing.T) {
	t.Parallel()

	store, err := history.OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	source := newFakeSource()
	manager := devices.NewManager(fakeController{}, "bridge")
	b := New(source, manager, store, logging.Nop(), Options{PollInterval: time.Hour})

	b.Start(context.Background())
	defer b.Stop()

	manager.Apply([]jellyfin.Session{playingSession("dev-1", "it-1", "The Matrix")})
	manager.Apply([]jellyfin.Session{playingSession("dev-1", "it-2", "Heat")})

	events, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "it-2", events[0].ItemID)
}

func TestStopIsIdempotentBeforeStart(t *testing.T) {
	t.Parallel()

	b := New(newFakeSource(), devices.NewManager(fakeController{}, "bridge"), nil, logging.Nop(), Options{})
	b.Stop()
}
