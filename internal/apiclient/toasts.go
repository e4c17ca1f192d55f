package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/khIbrahim/popcornon/internal/notify"
)

const toastPath = "/v1/admin/notifications/ws"

// toastURL maps the API base URL onto the websocket endpoint.
func (c *Client) toastURL() (string, error) {
	u, err := url.Parse(c.baseURL + toastPath)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// StreamToasts subscribes to the live toast feed and hands every toast to
// n until ctx is done or the server closes the connection.
func (c *Client) StreamToasts(ctx context.Context, n notify.Notifier) error {
	target, err := c.toastURL()
	if err != nil {
		return err
	}
	header := http.Header{}
	if tok := c.Token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return &TransportError{StatusCode: resp.StatusCode, Err: err}
		}
		return &TransportError{Err: err}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
	}()

	c.logger.Debug().Str("url", target).Msg("toast stream connected")
	for {
		var t notify.Toast
		if err := conn.ReadJSON(&t); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return fmt.Errorf("toast stream closed: %w", err)
			}
			return &TransportError{Err: err}
		}
		n.Notify(t)
	}
}
