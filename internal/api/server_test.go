package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hautomata/jellybridge/internal/devices"
	"github.com/hautomata/jellybridge/internal/history"
	"github.com/hautomata/jellybridge/internal/jellyfin"
	"github.com/hautomata/jellybridge/internal/logging"
)

type fakeController struct {
	playstates []string
	played     [][]string
	failNext   bool
}

func (f *fakeController) SendPlaystate(sessionID string, cmd jellyfin.PlaystateCommand, seekSeconds float64) error {
	if f.failNext {
		f.failNext = false
		return assert.AnError
	}
	f.playstates = append(f.playstates, sessionID+":"+string(cmd))
	return nil
}

func (f *fakeController) Play(sessionID string, itemIDs ...string) error {
	f.played = append(f.played, append([]string{sessionID}, itemIDs...))
	return nil
}

func (f *fakeController) ArtworkURL(itemID, imageType string, maxWidth int) string {
	return "http://media.local/Items/" + itemID + "/Images/" + imageType
}

type fakeMedia struct {
	fakeController
	views     []jellyfin.Item
	items     map[string]*jellyfin.Item
	children  map[string][]jellyfin.Item
	refreshed bool
}

func (f *fakeMedia) GetItem(itemID string) (*jellyfin.Item, error) {
	if item, ok := f.items[itemID]; ok {
		return item, nil
	}
	return nil, assert.AnError
}

func (f *fakeMedia) GetChildren(parentID string) ([]jellyfin.Item, error) {
	return f.children[parentID], nil
}

func (f *fakeMedia) GetUserViews() ([]jellyfin.Item, error) {
	return f.views, nil
}

func (f *fakeMedia) GetSystemInfo() (*jellyfin.SystemInfo, error) {
	return &jellyfin.SystemInfo{ServerName: "test", Version: "10.9.0"}, nil
}

func (f *fakeMedia) RefreshLibrary() error {
	f.refreshed = true
	return nil
}

type fakeBridge struct{ connected bool }

func (f *fakeBridge) Connected() bool { return f.connected }

func ticks(seconds int64) *int64 {
	t := seconds * jellyfin.TicksPerSecond
	return &t
}

func playingSession(deviceID, client string) jellyfin.Session {
	return jellyfin.Session{
		ID:                    "sess-" + deviceID,
		DeviceID:              deviceID,
		DeviceName:            "Device " + deviceID,
		Client:                client,
		UserName:              "alice",
		SupportsRemoteControl: true,
		NowPlayingItem: &jellyfin.NowPlaying{
			ID:           "item-1",
			Name:         "The Matrix",
			Type:         "Movie",
			RunTimeTicks: ticks(12000),
		},
		PlayState: &jellyfin.PlayState{PositionTicks: ticks(3000)},
	}
}

func newTestServer(t *testing.T) (*Server, *fakeMedia, *devices.Manager) {
	t.Helper()

	media := &fakeMedia{
		views: []jellyfin.Item{{ID: "lib-1", Name: "Movies", Type: "CollectionFolder"}},
		items: map[string]*jellyfin.Item{
			"lib-1": {ID: "lib-1", Name: "Movies", Type: "CollectionFolder"},
		},
		children: map[string][]jellyfin.Item{
			"lib-1": {{ID: "m-1", Name: "The Matrix", Type: "Movie"}},
		},
	}
	manager := devices.NewManager(media, "bridge-client")
	manager.Apply([]jellyfin.Session{playingSession("dev-1", "Web")})

	store, err := history.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := NewServer(manager, media, &fakeBridge{connected: true}, store, logging.Nop(), "1.0.0")
	return srv, media, manager
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, true, resp["connected"])
	assert.Equal(t, float64(1), resp["active_devices"])
}

func TestListDevices(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Devices []devicePayload `json:"devices"`
		Active  int             `json:"active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, "dev-1.Web", resp.Devices[0].Key)
	assert.Equal(t, "Playing", resp.Devices[0].State)
	assert.Equal(t, "The Matrix", resp.Devices[0].MediaTitle)
	require.NotNil(t, resp.Devices[0].PercentPlayed)
	assert.Equal(t, 25.0, *resp.Devices[0].PercentPlayed)
}

func TestGetDeviceNotFound(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/devices/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendCommand(t *testing.T) {
	t.Parallel()

	srv, media, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/dev-1.Web/command", `{"command":"pause"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, media.playstates, 1)
	assert.Equal(t, "sess-dev-1:Pause", media.playstates[0])
}

func TestSendCommandUnknown(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/dev-1.Web/command", `{"command":"explode"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendCommandOfflineDevice(t *testing.T) {
	t.Parallel()

	srv, _, manager := newTestServer(t)
	manager.Apply(nil) // session vanished

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/dev-1.Web/command", `{"command":"pause"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSendCommandNoRemoteControl(t *testing.T) {
	t.Parallel()

	srv, _, manager := newTestServer(t)
	sess := playingSession("dev-1", "Web")
	sess.SupportsRemoteControl = false
	manager.Apply([]jellyfin.Session{sess})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/dev-1.Web/command", `{"command":"pause"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSendCommandPlayMedia(t *testing.T) {
	t.Parallel()

	srv, media, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/dev-1.Web/command", `{"command":"play_media","item_ids":["m-1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, media.played, 1)
	assert.Equal(t, []string{"sess-dev-1", "m-1"}, media.played[0])

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/devices/dev-1.Web/command", `{"command":"play_media"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBrowseRoot(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/browse", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var node struct {
		Title    string `json:"title"`
		Children []struct {
			Title     string `json:"title"`
			ContentID string `json:"media_content_id"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
	require.Len(t, node.Children, 1)
	assert.Equal(t, "Movies", node.Children[0].Title)
}

func TestHistoryEndpoints(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	require.NoError(t, srv.store.Record(history.Event{
		DeviceKey: "dev-1.Web", DeviceName: "Device dev-1", Client: "Web",
		State: "Playing", ItemName: "The Matrix",
	}))

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []history.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "The Matrix", resp.Events[0].ItemName)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/devices/dev-1.Web/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/devices/other/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Events)
}

func TestHistoryDisabled(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	srv.store = nil
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshLibrary(t *testing.T) {
	t.Parallel()

	srv, media, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/library/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, media.refreshed)
}
