package source

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/studiowebux/perfscope/internal/types"
)

//go:embed collect.js
var collectScript string

// Target is one debuggable target listed by the browser's /json/list endpoint
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// LiveTabSource reads timing data from a tab of a browser started with
// --remote-debugging-port, through the DevTools protocol
type LiveTabSource struct {
	DevToolsURL string // e.g. http://127.0.0.1:9222
	URLFilter   string // pick the first page whose URL contains this; empty picks the first page
	Timeout     time.Duration

	client *http.Client
	nextID atomic.Int64
}

// NewLiveTab creates a live tab source
func NewLiveTab(devToolsURL, urlFilter string, timeout time.Duration) *LiveTabSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LiveTabSource{
		DevToolsURL: strings.TrimRight(devToolsURL, "/"),
		URLFilter:   urlFilter,
		Timeout:     timeout,
		client:      &http.Client{Timeout: timeout},
	}
}

// Name implements Source
func (l *LiveTabSource) Name() string {
	return "live"
}

// Fetch implements Source
func (l *LiveTabSource) Fetch(ctx context.Context) (*types.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	target, err := l.findTarget(ctx)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(target.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, target.URL)
	}

	raw, err := l.evaluate(ctx, target.WebSocketDebuggerURL, collectScript)
	if err != nil {
		return nil, err
	}
	if raw == "" || raw == "null" {
		return nil, ErrNoNavigation
	}

	var snap types.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("%w: failed to decode page snapshot: %v", ErrNoNavigation, err)
	}
	if snap.Navigation == nil && len(snap.Resources) == 0 {
		return nil, ErrNoNavigation
	}
	if snap.PageDomain == "" {
		snap.PageDomain = hostOf(snap.PageURL)
	}
	return &snap, nil
}

// Targets lists the debuggable targets
func (l *LiveTabSource) Targets(ctx context.Context) ([]Target, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.DevToolsURL+"/json/list", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTabUnreachable, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTabUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: devtools returned HTTP %d", ErrTabUnreachable, resp.StatusCode)
	}

	var targets []Target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("%w: invalid target list: %v", ErrTabUnreachable, err)
	}
	return targets, nil
}

func (l *LiveTabSource) findTarget(ctx context.Context) (*Target, error) {
	targets, err := l.Targets(ctx)
	if err != nil {
		return nil, err
	}

	for i := range targets {
		t := &targets[i]
		if t.Type != "page" || t.WebSocketDebuggerURL == "" {
			continue
		}
		if l.URLFilter == "" || strings.Contains(t.URL, l.URLFilter) {
			return t, nil
		}
	}

	if l.URLFilter != "" {
		return nil, fmt.Errorf("%w: no page matching %q", ErrTabUnreachable, l.URLFilter)
	}
	return nil, fmt.Errorf("%w: no debuggable page", ErrTabUnreachable)
}

type cdpRequest struct {
	ID     int64          `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

type cdpResponse struct {
	ID     int64 `json:"id"`
	Result *struct {
		Result struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// evaluate runs expression in the page and returns its string result
func (l *LiveTabSource) evaluate(ctx context.Context, wsURL, expression string) (string, error) {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: l.Timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return "", fmt.Errorf("%w: connection failed (HTTP %d): %v", ErrTabUnreachable, resp.StatusCode, err)
		}
		return "", fmt.Errorf("%w: connection failed: %v", ErrTabUnreachable, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	id := l.nextID.Add(1)
	req := cdpRequest{
		ID:     id,
		Method: "Runtime.evaluate",
		Params: map[string]any{
			"expression":    expression,
			"returnByValue": true,
			"awaitPromise":  true,
		},
	}
	if err := conn.WriteJSON(req); err != nil {
		return "", fmt.Errorf("%w: failed to send evaluate: %v", ErrTabUnreachable, err)
	}

	// Events may arrive before our reply; skip anything without our id
	for {
		var msg cdpResponse
		if err := conn.ReadJSON(&msg); err != nil {
			return "", fmt.Errorf("%w: failed to read evaluate result: %v", ErrTabUnreachable, err)
		}
		if msg.ID != id {
			continue
		}
		if msg.Error != nil {
			return "", fmt.Errorf("%w: %s", ErrTabUnreachable, msg.Error.Message)
		}
		if msg.Result == nil {
			return "", ErrNoNavigation
		}
		if msg.Result.ExceptionDetails != nil {
			return "", fmt.Errorf("%w: script failed: %s", ErrNoNavigation, msg.Result.ExceptionDetails.Text)
		}

		var s string
		if err := json.Unmarshal(msg.Result.Result.Value, &s); err != nil {
			return "", fmt.Errorf("%w: unexpected result type %s", ErrNoNavigation, msg.Result.Result.Type)
		}
		return s, nil
	}
}

// hostOf returns the hostname of a URL, or "" when it has none
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
