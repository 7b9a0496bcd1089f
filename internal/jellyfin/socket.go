package jellyfin

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 15 * time.Second
	pingPeriod       = 30 * time.Second
	writeWait        = 10 * time.Second

	// sessionsStartData asks the server to push session updates
	// immediately and then every 1500ms.
	sessionsStartData = "0,1500"
)

// SocketEvents carries the callbacks fired by Listen. Nil callbacks are
// skipped. Callbacks run on the read goroutine and must not block.
type SocketEvents struct {
	// OnSessions receives every Sessions push from the server.
	OnSessions func(sessions []Session)
	// OnConnect fires after each successful (re)connect.
	OnConnect func()
	// OnDisconnect fires when an established connection drops.
	OnDisconnect func(err error)
	// OnRetry fires before each reconnect wait with the chosen backoff.
	OnRetry func(wait time.Duration, attempt int)
}

// socketFrame is the websocket message envelope.
type socketFrame struct {
	MessageType string          `json:"MessageType"`
	Data        json.RawMessage `json:"Data,omitempty"`
}

// SocketURL returns the websocket endpoint for this server.
func (c *Client) SocketURL() string {
	wsBase := c.baseURL
	if strings.HasPrefix(wsBase, "https://") {
		wsBase = "wss://" + strings.TrimPrefix(wsBase, "https://")
	} else {
		wsBase = "ws://" + strings.TrimPrefix(wsBase, "http://")
	}

	query := url.Values{}
	query.Set("api_key", c.AccessToken())
	query.Set("deviceId", c.clientID)
	return wsBase + "/socket?" + query.Encode()
}

// Listen connects to the server's websocket channel, subscribes to
// session updates, and keeps the connection alive until ctx is
// cancelled. Dropped connections are retried with a doubling backoff
// starting at one second and capped at maxBackoff; a successful
// connect resets the backoff.
func (c *Client) Listen(ctx context.Context, maxBackoff time.Duration, events SocketEvents) error {
	if maxBackoff <= 0 {
		maxBackoff = 100 * time.Second
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	if strings.HasPrefix(c.baseURL, "https://") && c.insecureTLS {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	backoff := time.Second
	attempt := 0

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, resp, err := dialer.DialContext(ctx, c.SocketURL(), nil)
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			attempt++
			if events.OnRetry != nil {
				events.OnRetry(backoff, attempt)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = time.Second
		attempt = 0
		if events.OnConnect != nil {
			events.OnConnect()
		}

		err = c.serveSocket(ctx, conn, events)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if events.OnDisconnect != nil {
			events.OnDisconnect(err)
		}
	}
}

// serveSocket runs the read loop on one established connection.
func (c *Client) serveSocket(ctx context.Context, conn *websocket.Conn, events SocketEvents) error {
	if err := writeFrame(conn, "SessionsStart", sessionsStartData); err != nil {
		return fmt.Errorf("subscribing to sessions: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(2 * pingPeriod))
		return nil
	})

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(writeWait)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					conn.Close()
					return
				}
			case <-pingCtx.Done():
				// Unblocks the read loop on shutdown.
				conn.Close()
				return
			}
		}
	}()

	for {
		var frame socketFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return fmt.Errorf("reading socket frame: %w", err)
		}

		switch frame.MessageType {
		case "Sessions":
			var sessions []Session
			if err := json.Unmarshal(frame.Data, &sessions); err != nil {
				continue
			}
			if events.OnSessions != nil {
				events.OnSessions(sessions)
			}
		case "ForceKeepAlive":
			if err := writeFrame(conn, "KeepAlive", nil); err != nil {
				return fmt.Errorf("answering keepalive: %w", err)
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, messageType string, data any) error {
	frame := struct {
		MessageType string `json:"MessageType"`
		Data        any    `json:"Data,omitempty"`
	}{MessageType: messageType, Data: data}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(frame)
}
