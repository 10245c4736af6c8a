// Package sse implements the client side of Server-Sent Events: a cancellable
// subscription yielding a finite sequence of events until the server finishes
// the stream or the subscriber closes it. The transport contract is only
// Events/Err/Close, so consumers never touch the wire format.
package sse

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// maxLineSize bounds a single SSE line. Artifact payloads can be large.
const maxLineSize = 1 << 20

// Event is one decoded server-sent event.
type Event struct {
	// Name is the value of the "event:" field, empty for unnamed events.
	Name string
	// Data is the concatenated "data:" payload, multi-line values joined
	// with newlines.
	Data []byte
	// ID is the value of the "id:" field, if any.
	ID string
}

// Error represents a failed stream subscription.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sse error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("sse error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Subscription is a live event stream. Events closes when the server ends the
// stream, the transport fails, or Close is called; Err is non-nil afterwards
// only for transport failures.
type Subscription struct {
	events chan Event
	body   io.ReadCloser
	cancel context.CancelFunc

	mu     sync.Mutex
	err    error
	closed bool
}

// Subscribe issues the request and starts decoding events. The request should
// already carry auth headers; Subscribe adds the stream negotiation headers.
// A non-200 response is an error, not a subscription.
func Subscribe(ctx context.Context, client *http.Client, req *http.Request) (*Subscription, error) {
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithCancel(ctx)
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, &Error{URL: req.URL.String(), Message: "request failed", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cancel()
		return nil, &Error{
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	sub := &Subscription{
		events: make(chan Event),
		body:   resp.Body,
		cancel: cancel,
	}
	go sub.decode(ctx)
	return sub, nil
}

// Events returns the event channel. It closes when the stream ends.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Err reports the transport error that ended the stream, if any. Valid after
// Events closes. A deliberate Close and a server-finished stream both report
// nil.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the subscription. Safe to call multiple times and
// concurrently with event delivery.
func (s *Subscription) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	_ = s.body.Close()
}

// decode reads the wire format: "field: value" lines accumulated until a
// blank line dispatches the event. Comment lines (leading colon) are ignored.
func (s *Subscription) decode(ctx context.Context) {
	defer close(s.events)

	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		name string
		id   string
		data [][]byte
	)

	dispatch := func() bool {
		if len(data) == 0 && name == "" {
			return true
		}
		ev := Event{Name: name, ID: id, Data: bytes.Join(data, []byte("\n"))}
		name, id, data = "", "", nil
		select {
		case s.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if !dispatch() {
				return
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := line, ""
		if idx := strings.Index(line, ":"); idx >= 0 {
			field = line[:idx]
			value = strings.TrimPrefix(line[idx+1:], " ")
		}
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, []byte(value))
		case "id":
			id = value
		}
		// "retry" and unknown fields are ignored; reconnect policy belongs
		// to the caller.
	}

	// Flush a final event not followed by a blank line.
	if len(data) > 0 || name != "" {
		_ = dispatch()
	}

	if err := scanner.Err(); err != nil {
		s.mu.Lock()
		if !s.closed && ctx.Err() == nil {
			s.err = &Error{Message: "stream read failed", Cause: err}
		}
		s.mu.Unlock()
	}
}
