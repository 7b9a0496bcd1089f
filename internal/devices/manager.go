package devices

import (
	"sort"
	"sync"

	"github.com/hautomata/jellybridge/internal/jellyfin"
)

// Manager diffs session snapshots from the server into the device
// cache and fires change callbacks. Apply is called from the websocket
// read goroutine and from the REST poll fallback; reads come from the
// API. All methods are safe for concurrent use.
type Manager struct {
	ctrl        Controller
	ownClientID string

	mu      sync.RWMutex
	devices map[string]*Device

	cbMu      sync.RWMutex
	onChanged []func()
	onStale   []func(key string)
	onUpdate  []func(key string)
}

// NewManager creates an empty device cache. Sessions reporting
// ownClientID as their device id are the bridge's own connection and
// are never tracked.
func NewManager(ctrl Controller, ownClientID string) *Manager {
	return &Manager{
		ctrl:        ctrl,
		ownClientID: ownClientID,
		devices:     make(map[string]*Device),
	}
}

// OnDevicesChanged registers a callback fired when devices appear or
// come back from inactive.
func (m *Manager) OnDevicesChanged(cb func()) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onChanged = append(m.onChanged, cb)
}

// OnStaleDevice registers a callback fired when a device's session
// disappears from the server.
func (m *Manager) OnStaleDevice(cb func(key string)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onStale = append(m.onStale, cb)
}

// OnDeviceUpdate registers a callback fired when a tracked device's
// state changes in a way subscribers care about.
func (m *Manager) OnDeviceUpdate(cb func(key string)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onUpdate = append(m.onUpdate, cb)
}

// Apply reconciles a full session snapshot against the cache.
func (m *Manager) Apply(sessions []jellyfin.Session) {
	var (
		changed bool
		stale   []string
		updated []string
	)

	m.mu.Lock()
	seen := make(map[string]bool, len(sessions))
	for _, session := range sessions {
		if session.DeviceID == m.ownClientID {
			continue
		}
		key := session.Key()
		seen[key] = true

		existing, ok := m.devices[key]
		if !ok {
			m.devices[key] = newDevice(session, m.ctrl)
			changed = true
			continue
		}

		wasInactive := !existing.Active()
		notify := shouldNotify(existing.Session(), existing.Active(), session)
		existing.update(session)
		existing.setActive(true)

		if wasInactive {
			changed = true
		}
		if notify {
			updated = append(updated, key)
		}
	}

	for key, device := range m.devices {
		if seen[key] || !device.Active() {
			continue
		}
		device.setActive(false)
		stale = append(stale, key)
		updated = append(updated, key)
	}
	m.mu.Unlock()

	m.cbMu.RLock()
	defer m.cbMu.RUnlock()
	if changed {
		for _, cb := range m.onChanged {
			cb()
		}
	}
	for _, key := range stale {
		for _, cb := range m.onStale {
			cb(key)
		}
	}
	for _, key := range updated {
		for _, cb := range m.onUpdate {
			cb(key)
		}
	}
}

// shouldNotify decides whether a session change warrants an update
// callback: theme media is always suppressed, anything touching a
// Playing state fires, and so does any state transition.
func shouldNotify(old jellyfin.Session, oldActive bool, next jellyfin.Session) bool {
	oldTheme := old.NowPlayingItem != nil && old.NowPlayingItem.IsThemeMedia
	newTheme := next.NowPlayingItem != nil && next.NowPlayingItem.IsThemeMedia
	if oldTheme || newTheme {
		return false
	}

	oldState := sessionState(old, oldActive)
	newState := sessionState(next, true)

	if oldState == StatePlaying || newState == StatePlaying {
		return true
	}
	return oldState != newState
}

// Device returns the cached device for a key.
func (m *Manager) Device(key string) (*Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[key]
	return d, ok
}

// Devices returns all cached devices sorted by key.
func (m *Manager) Devices() []*Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.devices))
	for key := range m.devices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	devices := make([]*Device, 0, len(keys))
	for _, key := range keys {
		devices = append(devices, m.devices[key])
	}
	return devices
}

// ActiveCount returns the number of active devices.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, d := range m.devices {
		if d.Active() {
			count++
		}
	}
	return count
}
