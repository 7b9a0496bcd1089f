package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hautomata/jellybridge/internal/browse"
	"github.com/hautomata/jellybridge/internal/devices"
	"github.com/hautomata/jellybridge/internal/logging"
)

// devicePayload is the wire form of a tracked device.
type devicePayload struct {
	Key           string   `json:"key"`
	Name          string   `json:"name"`
	Client        string   `json:"client"`
	Username      string   `json:"username,omitempty"`
	State         string   `json:"state"`
	Active        bool     `json:"active"`
	RemoteControl bool     `json:"remote_control"`
	MediaTitle    string   `json:"media_title,omitempty"`
	MediaID       string   `json:"media_id,omitempty"`
	MediaType     string   `json:"media_type,omitempty"`
	SeriesTitle   string   `json:"series_title,omitempty"`
	Season        int      `json:"season,omitempty"`
	Episode       int      `json:"episode,omitempty"`
	Album         string   `json:"album,omitempty"`
	Artist        string   `json:"artist,omitempty"`
	Position      *float64 `json:"position_seconds,omitempty"`
	Runtime       *float64 `json:"runtime_seconds,omitempty"`
	PercentPlayed *float64 `json:"percent_played,omitempty"`
	ArtworkURL    string   `json:"artwork_url,omitempty"`
}

func deviceToPayload(d *devices.Device) devicePayload {
	p := devicePayload{
		Key:           d.Key(),
		Name:          d.Name(),
		Client:        d.ClientName(),
		Username:      d.Username(),
		State:         string(d.State()),
		Active:        d.Active(),
		RemoteControl: d.SupportsRemoteControl(),
		MediaTitle:    d.MediaTitle(),
		MediaID:       d.MediaID(),
		MediaType:     d.MediaType(),
		SeriesTitle:   d.SeriesTitle(),
		Season:        d.Season(),
		Episode:       d.Episode(),
		Album:         d.AlbumName(),
		Artist:        d.Artist(),
		ArtworkURL:    d.ArtworkURL(),
	}
	if v, ok := d.Position(); ok {
		p.Position = &v
	}
	if v, ok := d.Runtime(); ok {
		p.Runtime = &v
	}
	if v, ok := d.PercentPlayed(); ok {
		p.PercentPlayed = &v
	}
	return p
}

// HealthCheck reports daemon liveness and upstream connection state.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	connected := false
	if s.bridge != nil {
		connected = s.bridge.Connected()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"connected":      connected,
		"active_devices": s.manager.ActiveCount(),
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

// ListDevices returns all tracked devices, stale entries included.
func (s *Server) ListDevices(w http.ResponseWriter, r *http.Request) {
	payloads := []devicePayload{}
	for _, d := range s.manager.Devices() {
		payloads = append(payloads, deviceToPayload(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": payloads,
		"active":  s.manager.ActiveCount(),
	})
}

// GetDevice returns one device by its session key.
func (s *Server) GetDevice(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	d, ok := s.manager.Device(key)
	if !ok {
		writeError(w, http.StatusNotFound, "device_not_found", "no device with key "+key)
		return
	}
	writeJSON(w, http.StatusOK, deviceToPayload(d))
}

// commandRequest is the body of POST /devices/{key}/command.
type commandRequest struct {
	Command  string   `json:"command"`
	Position float64  `json:"position_seconds,omitempty"`
	ItemIDs  []string `json:"item_ids,omitempty"`
}

// SendCommand dispatches a transport command to a device.
func (s *Server) SendCommand(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	d, ok := s.manager.Device(key)
	if !ok {
		writeError(w, http.StatusNotFound, "device_not_found", "no device with key "+key)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to decode request: "+err.Error())
		return
	}

	if !d.Active() {
		writeError(w, http.StatusConflict, "device_offline", "device is not connected to the server")
		return
	}
	if !d.SupportsRemoteControl() {
		writeError(w, http.StatusConflict, "no_remote_control", "device does not accept remote control")
		return
	}

	var err error
	switch req.Command {
	case "play":
		err = d.Play()
	case "pause":
		err = d.Pause()
	case "stop":
		err = d.Stop()
	case "next":
		err = d.NextTrack()
	case "previous":
		err = d.PreviousTrack()
	case "seek":
		err = d.Seek(req.Position)
	case "play_media":
		if len(req.ItemIDs) == 0 {
			writeError(w, http.StatusBadRequest, "missing_items", "play_media requires item_ids")
			return
		}
		err = d.PlayMedia(req.ItemIDs...)
	default:
		writeError(w, http.StatusBadRequest, "unknown_command", "unknown command: "+req.Command)
		return
	}

	if err != nil {
		s.log.Error("api", "command failed", err,
			logging.F("device", key), logging.F("command", req.Command))
		writeError(w, http.StatusBadGateway, "command_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "sent",
		"command": req.Command,
	})
}

// BrowseLibrary walks one level of the media tree. Without query
// parameters it returns the library roots.
func (s *Server) BrowseLibrary(w http.ResponseWriter, r *http.Request) {
	contentType := r.URL.Query().Get("type")
	contentID := r.URL.Query().Get("id")

	node, err := browse.Browse(s.media, contentType, contentID)
	if err != nil {
		switch {
		case errors.Is(err, browse.ErrNotFound):
			writeError(w, http.StatusNotFound, "content_not_found", err.Error())
		case errors.Is(err, browse.ErrUnknownMediaType):
			writeError(w, http.StatusBadRequest, "unknown_media_type", err.Error())
		default:
			writeError(w, http.StatusBadGateway, "browse_failed", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// GetHistory returns recent playback events across all devices.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "history_disabled", "playback history is not enabled")
		return
	}
	events, err := s.store.Recent(queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": emptyIfNil(events)})
}

// GetDeviceHistory returns recent playback events for one device.
func (s *Server) GetDeviceHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "history_disabled", "playback history is not enabled")
		return
	}
	key := chi.URLParam(r, "key")
	events, err := s.store.ForDevice(key, queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": emptyIfNil(events)})
}

// RefreshLibrary asks the media server to rescan its libraries.
func (s *Server) RefreshLibrary(w http.ResponseWriter, r *http.Request) {
	if err := s.media.RefreshLibrary(); err != nil {
		writeError(w, http.StatusBadGateway, "refresh_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
