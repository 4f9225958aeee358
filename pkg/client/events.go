package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/logging"
)

// Event is a change event received from the SSE stream.
type Event struct {
	Type      string          `json:"type"`
	Path      string          `json:"path,omitempty"`
	OldPath   string          `json:"oldPath,omitempty"`
	ItemID    string          `json:"itemId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Count     int             `json:"count,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// Watch streams change events until ctx is cancelled, reconnecting with
// backoff when the connection drops. Connection errors are reported on
// the second channel without stopping the stream; both channels close
// when ctx is done.
func (c *Client) Watch(ctx context.Context) (<-chan Event, <-chan error) {
	events := make(chan Event, 100)
	errs := make(chan error, 1)
	go c.watchLoop(ctx, events, errs)
	return events, errs
}

func (c *Client) watchLoop(ctx context.Context, events chan<- Event, errs chan<- error) {
	defer close(events)
	defer close(errs)

	delay := reconnectMin
	for {
		err := c.stream(ctx, events)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logging.Warn("event stream error",
				zap.Error(err),
				zap.Duration("reconnect_in", delay))
			select {
			case errs <- err:
			default:
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, reconnectMax)
	}
}

func (c *Client) stream(ctx context.Context, events chan<- Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/events", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	c.applyAuth(req)

	// The shared client has a timeout; streams must not.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode}
	}
	logging.Debug("event stream connected")

	scanner := bufio.NewScanner(resp.Body)
	var eventType, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data != "" {
				var e Event
				if err := json.Unmarshal([]byte(data), &e); err == nil {
					if e.Type == "" {
						e.Type = eventType
					}
					select {
					case events <- e:
					case <-ctx.Done():
						return nil
					}
				}
			}
			eventType, data = "", ""
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return fmt.Errorf("connection closed")
}
