// Package jellyfin is a minimal Jellyfin REST and websocket client
// covering the surface jellybridge needs: authentication, session
// tracking, transport commands, and library browsing.
package jellyfin

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// TicksPerSecond converts Jellyfin's 100ns ticks to seconds.
const TicksPerSecond = 10_000_000

const clientVersion = "1.0.0"

var serverURLPattern = regexp.MustCompile(`^(https?://)?([^/:]+)(:[0-9]+)?(/.*)?$`)

type Config struct {
	URL        string
	Username   string
	Password   string
	APIKey     string
	ClientID   string
	VerifySSL  bool
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to one Jellyfin server. Safe for concurrent use.
type Client struct {
	baseURL     string
	clientID    string
	hostname    string
	httpClient  *http.Client
	insecureTLS bool

	mu          sync.RWMutex
	accessToken string
	userID      string

	// set when authenticating with a static API key instead of a login
	apiKey string
}

// NewClient builds a client. Call Login before user-scoped endpoints
// unless cfg.APIKey is set.
func NewClient(cfg Config) (*Client, error) {
	baseURL, err := NormalizeURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "jellybridge"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("jellybridge-%s-%d", hostname, time.Now().UnixNano())
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
		if !cfg.VerifySSL {
			httpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	} else if httpClient.Timeout == 0 {
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:     baseURL,
		clientID:    clientID,
		hostname:    hostname,
		httpClient:  httpClient,
		insecureTLS: !cfg.VerifySSL,
		apiKey:      cfg.APIKey,
	}, nil
}

// NormalizeURL fills in the scheme and port the way most users write
// Jellyfin addresses: bare hosts get http:// and port 8096, https hosts
// without a port get 443.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", fmt.Errorf("server URL is empty")
	}

	m := serverURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("invalid server URL %q", raw)
	}
	scheme, host, port, path := m[1], m[2], m[3], m[4]

	if scheme == "" {
		scheme = "http://"
	}
	if port == "" {
		switch scheme {
		case "http://":
			port = ":8096"
		case "https://":
			port = ":443"
		}
	}

	return scheme + host + port + path, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ClientID returns the device id this client reports to the server.
// Sessions with this id are our own and excluded from device tracking.
func (c *Client) ClientID() string {
	return c.clientID
}

// AccessToken returns the current token, either the configured API key
// or the token obtained by Login.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.accessToken != "" {
		return c.accessToken
	}
	return c.apiKey
}

// UserID returns the authenticated user id, empty for API-key auth.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) authHeader() string {
	return fmt.Sprintf(`MediaBrowser Client="jellybridge", Device="%s", DeviceId="%s", Version="%s", Token="%s"`,
		c.hostname, c.clientID, clientVersion, c.AccessToken())
}

// Login authenticates with username/password and stores the access
// token for subsequent requests. Not needed for API-key auth.
func (c *Client) Login(username, password string) error {
	payload := map[string]string{
		"Username": username,
		"Pw":       password,
	}

	var result AuthResponse
	if err := c.post("/Users/AuthenticateByName", payload, &result); err != nil {
		return fmt.Errorf("authenticating %q: %w", username, err)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("authenticating %q: no access token in response", username)
	}

	c.mu.Lock()
	c.accessToken = result.AccessToken
	c.userID = result.User.ID
	c.mu.Unlock()

	return nil
}

func (c *Client) request(method, endpoint string, body io.Reader) (*http.Response, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	rel, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	req, err := http.NewRequest(method, base.ResolveReference(rel).String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-Emby-Authorization", c.authHeader())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return resp, nil
}

func (c *Client) get(endpoint string, result interface{}) error {
	resp, err := c.request(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) post(endpoint string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding payload: %w", err)
		}
		body = bytes.NewReader(jsonBytes)
	}

	resp, err := c.request(http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// Ping verifies connectivity and credentials.
func (c *Client) Ping() error {
	if _, err := c.GetSystemInfo(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// GetSystemInfo returns GET /System/Info.
func (c *Client) GetSystemInfo() (*SystemInfo, error) {
	var info SystemInfo
	if err := c.get("/System/Info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetPublicInfo returns GET /System/Info/Public, which needs no auth.
func (c *Client) GetPublicInfo() (*PublicSystemInfo, error) {
	var info PublicSystemInfo
	if err := c.get("/System/Info/Public", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RefreshLibrary asks the server to rescan its libraries.
func (c *Client) RefreshLibrary() error {
	if err := c.post("/Library/Refresh", nil, nil); err != nil {
		return fmt.Errorf("refreshing library: %w", err)
	}
	return nil
}
