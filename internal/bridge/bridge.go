// Package bridge runs the session tracking loop: a websocket listener
// for server pushes plus a REST poll fallback, feeding the device
// manager and the playback history store.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/hautomata/jellybridge/internal/devices"
	"github.com/hautomata/jellybridge/internal/history"
	"github.com/hautomata/jellybridge/internal/jellyfin"
	"github.com/hautomata/jellybridge/internal/logging"
)

// SessionSource is the slice of the Jellyfin client the bridge drives.
type SessionSource interface {
	GetSessions() ([]jellyfin.Session, error)
	Listen(ctx context.Context, maxBackoff time.Duration, events jellyfin.SocketEvents) error
}

// Options tunes the tracking loop.
type Options struct {
	// PollInterval is how often sessions are fetched over REST while
	// the websocket is down. Zero means 30s.
	PollInterval time.Duration
	// MaxBackoff caps the websocket reconnect wait. Zero means 100s.
	MaxBackoff time.Duration
}

// Bridge owns the background goroutines that keep the device manager
// current.
type Bridge struct {
	source  SessionSource
	manager *devices.Manager
	store   *history.Store
	log     *logging.Logger
	opts    Options

	mu        sync.RWMutex
	connected bool
	lastState map[string]stateSnapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// stateSnapshot dedupes history rows: a device only gets a new row when
// its state or item changes, not on every position update.
type stateSnapshot struct {
	state  devices.State
	itemID string
}

// New creates a bridge. store may be nil when history is disabled.
func New(source SessionSource, manager *devices.Manager, store *history.Store, log *logging.Logger, opts Options) *Bridge {
	if log == nil {
		log = logging.Nop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 100 * time.Second
	}

	b := &Bridge{
		source:    source,
		manager:   manager,
		store:     store,
		log:       log,
		opts:      opts,
		lastState: make(map[string]stateSnapshot),
	}

	manager.OnDeviceUpdate(b.recordTransition)
	manager.OnDevicesChanged(func() {
		// New devices only announce themselves through this callback.
		for _, d := range manager.Devices() {
			b.recordTransition(d.Key())
		}
	})
	manager.OnStaleDevice(func(key string) {
		log.Info("bridge", "device went away", logging.F("device", key))
	})

	return b
}

// Connected reports whether the websocket channel is up.
func (b *Bridge) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

func (b *Bridge) setConnected(connected bool) {
	b.mu.Lock()
	b.connected = connected
	b.mu.Unlock()
}

// Start launches the listener and poll goroutines. It polls once
// synchronously so callers start with a populated device list.
func (b *Bridge) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})

	b.poll()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		b.listen(ctx)
	}()
	go func() {
		defer wg.Done()
		b.pollLoop(ctx)
	}()

	go func() {
		wg.Wait()
		close(b.done)
	}()
}

// Stop shuts the goroutines down and waits for them.
func (b *Bridge) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	<-b.done
}

func (b *Bridge) listen(ctx context.Context) {
	events := jellyfin.SocketEvents{
		OnSessions: b.manager.Apply,
		OnConnect: func() {
			b.setConnected(true)
			b.log.Info("bridge", "session channel connected")
		},
		OnDisconnect: func(err error) {
			b.setConnected(false)
			b.log.Warn("bridge", "session channel dropped", logging.F("error", err))
		},
		OnRetry: func(wait time.Duration, attempt int) {
			b.log.Debug("bridge", "reconnecting",
				logging.F("wait", wait), logging.F("attempt", attempt))
		},
	}

	if err := b.source.Listen(ctx, b.opts.MaxBackoff, events); err != nil && ctx.Err() == nil {
		b.log.Error("bridge", "session channel closed", err)
	}
	b.setConnected(false)
}

func (b *Bridge) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// The websocket pushes session state while it is up; the
			// poll only covers the gaps.
			if b.Connected() {
				continue
			}
			b.poll()
		}
	}
}

func (b *Bridge) poll() {
	sessions, err := b.source.GetSessions()
	if err != nil {
		b.log.Warn("bridge", "session poll failed", logging.F("error", err))
		return
	}
	b.manager.Apply(sessions)
}

func (b *Bridge) recordTransition(key string) {
	d, ok := b.manager.Device(key)
	if !ok {
		return
	}

	snapshot := stateSnapshot{state: d.State(), itemID: d.MediaID()}

	b.mu.Lock()
	prev, seen := b.lastState[key]
	if seen && prev == snapshot {
		b.mu.Unlock()
		return
	}
	b.lastState[key] = snapshot
	b.mu.Unlock()

	if b.store == nil {
		return
	}

	event := history.Event{
		DeviceKey:  key,
		DeviceName: d.Name(),
		Client:     d.ClientName(),
		Username:   d.Username(),
		State:      string(snapshot.state),
		ItemID:     snapshot.itemID,
		ItemName:   d.MediaTitle(),
		ItemType:   d.MediaType(),
	}
	if pos, ok := d.Position(); ok {
		event.PositionS = pos
	}

	if err := b.store.Record(event); err != nil {
		b.log.Warn("bridge", "failed to record playback event",
			logging.F("device", key), logging.F("error", err))
	}
}
