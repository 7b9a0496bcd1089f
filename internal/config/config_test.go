package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.ClientID != "jellybridge" {
		t.Errorf("expected client_id jellybridge, got %q", cfg.Server.ClientID)
	}
	if !cfg.Server.VerifySSL {
		t.Error("expected verify_ssl true by default")
	}
	if cfg.Bridge.ReconnectMaxBackoff() != 100*time.Second {
		t.Errorf("expected 100s backoff cap, got %v", cfg.Bridge.ReconnectMaxBackoff())
	}
	if cfg.Bridge.PollIntervalDuration() != 30*time.Second {
		t.Errorf("expected 30s poll interval, got %v", cfg.Bridge.PollIntervalDuration())
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty server.url")
	}

	cfg.Server.URL = "jellyfin.local"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing credentials")
	}

	cfg.Server.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error with api_key: %v", err)
	}

	cfg.Server.APIKey = ""
	cfg.Server.Username = "user"
	cfg.Server.Password = "pass"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error with username/password: %v", err)
	}
}

func TestLoadPath_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := DefaultConfig()
	cfg.Server.URL = "http://jellyfin.local:8096"
	cfg.Server.Username = "media"
	cfg.Server.Password = "secret"
	cfg.Bridge.PollInterval = "15s"
	cfg.Bridge.ReconnectMaxBackoffS = 60

	if err := os.WriteFile(path, []byte(cfg.ToTOML()), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, err := LoadPath(path)
	if err != nil {
		t.Fatalf("LoadPath() error = %v", err)
	}

	if loaded.Server.URL != cfg.Server.URL {
		t.Errorf("url = %q, want %q", loaded.Server.URL, cfg.Server.URL)
	}
	if loaded.Server.Username != "media" {
		t.Errorf("username = %q, want media", loaded.Server.Username)
	}
	if loaded.Bridge.PollIntervalDuration() != 15*time.Second {
		t.Errorf("poll interval = %v, want 15s", loaded.Bridge.PollIntervalDuration())
	}
	if loaded.Bridge.ReconnectMaxBackoff() != 60*time.Second {
		t.Errorf("backoff cap = %v, want 60s", loaded.Bridge.ReconnectMaxBackoff())
	}
}

func TestLoadPath_MissingFileUsesDefaults(t *testing.T) {
	loaded, err := LoadPath(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadPath() error = %v", err)
	}
	if loaded.API.Addr != ":8097" {
		t.Errorf("addr = %q, want :8097", loaded.API.Addr)
	}
}

func TestTimeoutDefaults(t *testing.T) {
	s := ServerConfig{}
	if s.Timeout() != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", s.Timeout())
	}
	s.TimeoutS = 5
	if s.Timeout() != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", s.Timeout())
	}
}
