package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// OOBConn is a second, dedicated CDP connection used to close a blocking JS
// dialog out-of-band (spec.md §4.4, §9): sending
// Page.handleJavaScriptDialog over the SAME socket that is wedged by the
// open dialog can deadlock. DialOOB has no caller in this tree: the run
// engine's dialog auto-handler uses the session's own connection.
//
// Grounded on cklxx-elephant.ai's direct use of gorilla/websocket for raw
// connection management (internal/web), generalized from its chat SSE/WS
// bridge to a single-purpose CDP control channel.
type OOBConn struct {
	conn   *websocket.Conn
	nextID int64
}

// DialOOB opens a new websocket connection to wsURL (a tab's CDP
// webSocketDebuggerUrl) for out-of-band commands.
func DialOOB(ctx context.Context, wsURL string) (*OOBConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("browser: oob dial %s: %w", wsURL, err)
	}
	return &OOBConn{conn: conn}, nil
}

type cdpRequest struct {
	ID     int64          `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

type cdpResponse struct {
	ID    int64           `json:"id"`
	Error *cdpError       `json:"error,omitempty"`
	Raw   json.RawMessage `json:"-"`
}

type cdpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HandleDialog sends Page.handleJavaScriptDialog on the OOB connection and
// waits (bounded by ctx) for the matching response.
func (o *OOBConn) HandleDialog(ctx context.Context, accept bool, promptText string) error {
	id := atomic.AddInt64(&o.nextID, 1)
	params := map[string]any{"accept": accept}
	if promptText != "" {
		params["promptText"] = promptText
	}
	req := cdpRequest{ID: id, Method: "Page.handleJavaScriptDialog", Params: params}

	if err := o.conn.SetWriteDeadline(deadlineFrom(ctx)); err != nil {
		return err
	}
	if err := o.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("browser: oob write: %w", err)
	}

	if err := o.conn.SetReadDeadline(deadlineFrom(ctx)); err != nil {
		return err
	}
	for {
		var resp cdpResponse
		if err := o.conn.ReadJSON(&resp); err != nil {
			return fmt.Errorf("browser: oob read: %w", err)
		}
		if resp.ID != id {
			continue // an event or an unrelated reply; keep waiting for ours
		}
		if resp.Error != nil {
			return fmt.Errorf("browser: oob Page.handleJavaScriptDialog: %s", resp.Error.Message)
		}
		return nil
	}
}

func deadlineFrom(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Now().Add(2 * time.Second)
}

// Close releases the underlying websocket.
func (o *OOBConn) Close() error {
	return o.conn.Close()
}
