package jellyfin

// AuthResponse from POST /Users/AuthenticateByName.
type AuthResponse struct {
	AccessToken string   `json:"AccessToken"`
	ServerID    string   `json:"ServerId"`
	User        AuthUser `json:"User"`
}

type AuthUser struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// SystemInfo from GET /System/Info.
type SystemInfo struct {
	ServerName      string `json:"ServerName"`
	Version         string `json:"Version"`
	ID              string `json:"Id"`
	OperatingSystem string `json:"OperatingSystem"`
}

// PublicSystemInfo from GET /System/Info/Public.
type PublicSystemInfo struct {
	ServerName   string `json:"ServerName"`
	Version      string `json:"Version"`
	ID           string `json:"Id"`
	LocalAddress string `json:"LocalAddress"`
}

// Session from GET /Sessions and the websocket Sessions message.
type Session struct {
	ID                    string      `json:"Id"`
	DeviceID              string      `json:"DeviceId"`
	DeviceName            string      `json:"DeviceName"`
	Client                string      `json:"Client"`
	UserName              string      `json:"UserName"`
	SupportsRemoteControl bool        `json:"SupportsRemoteControl"`
	NowPlayingItem        *NowPlaying `json:"NowPlayingItem,omitempty"`
	PlayState             *PlayState  `json:"PlayState,omitempty"`
}

// Key identifies a session's device across reconnects. The session id
// itself changes when a client reconnects; DeviceId.Client does not.
func (s *Session) Key() string {
	return s.DeviceID + "." + s.Client
}

// NowPlaying is the currently playing item within a session.
type NowPlaying struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	Path              string            `json:"Path,omitempty"`
	SeriesName        string            `json:"SeriesName,omitempty"`
	Album             string            `json:"Album,omitempty"`
	AlbumArtist       string            `json:"AlbumArtist,omitempty"`
	Artists           []string          `json:"Artists,omitempty"`
	IndexNumber       *int              `json:"IndexNumber,omitempty"`
	ParentIndexNumber *int              `json:"ParentIndexNumber,omitempty"`
	RunTimeTicks      *int64            `json:"RunTimeTicks,omitempty"`
	IsThemeMedia      bool              `json:"IsThemeMedia,omitempty"`
	ImageTags         map[string]string `json:"ImageTags,omitempty"`
}

// PlayState is the transport state within a session.
type PlayState struct {
	IsPaused      bool   `json:"IsPaused"`
	CanSeek       bool   `json:"CanSeek"`
	PositionTicks *int64 `json:"PositionTicks,omitempty"`
}

// Item from GET /Items and GET /Users/{id}/Items.
type Item struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	IsFolder          bool              `json:"IsFolder"`
	ParentID          string            `json:"ParentId"`
	CollectionType    string            `json:"CollectionType,omitempty"`
	SeriesName        string            `json:"SeriesName,omitempty"`
	IndexNumber       *int              `json:"IndexNumber,omitempty"`
	ParentIndexNumber *int              `json:"ParentIndexNumber,omitempty"`
	RunTimeTicks      *int64            `json:"RunTimeTicks,omitempty"`
	ImageTags         map[string]string `json:"ImageTags,omitempty"`
}

// ItemsResponse from paginated item endpoints.
type ItemsResponse struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
	StartIndex       int    `json:"StartIndex"`
}
