package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/jonathan/outreach-agent/internal/jobs"
	"github.com/jonathan/outreach-agent/internal/schemas"
	"github.com/jonathan/outreach-agent/internal/sse"
)

// Feed fetches one page of the job feed.
func (c *Client) Feed(ctx context.Context, q jobs.FeedQuery) (*jobs.FeedPage, error) {
	if c.strict {
		raw, err := c.doRaw(ctx, http.MethodGet, "/api/jobs/feed", q.Values())
		if err != nil {
			return nil, err
		}
		if err := schemas.Validate(schemas.JobFeedPage, raw); err != nil {
			return nil, fmt.Errorf("job feed payload rejected: %w", err)
		}
		var page jobs.FeedPage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("failed to decode job feed: %w", err)
		}
		return &page, nil
	}

	var page jobs.FeedPage
	if err := c.doJSON(ctx, http.MethodGet, "/api/jobs/feed", q.Values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ExtractJob asks the backend to scrape a single posting from a URL.
func (c *Client) ExtractJob(ctx context.Context, jobURL string) (*jobs.ExtractResult, error) {
	var res jobs.ExtractResult
	body := map[string]string{"url": jobURL}
	if err := c.doJSON(ctx, http.MethodPost, "/api/jobs/extract", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SaveJob marks a feed posting as saved.
func (c *Client) SaveJob(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(id)+"/save", nil, nil, nil)
}

// StartCampaign creates a campaign for a feed posting.
func (c *Client) StartCampaign(ctx context.Context, id string) (*jobs.StartCampaignResult, error) {
	var res jobs.StartCampaignResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(id)+"/start-campaign", nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// StartRefresh kicks off a board refresh. A 409 surfaces as
// jobs.ErrRefreshRunning so the controller attaches to the running refresh.
func (c *Client) StartRefresh(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/jobs/refresh", nil, nil, nil)
	if errors.Is(err, ErrConflict) {
		return jobs.ErrRefreshRunning
	}
	return err
}

// RefreshStatus reports the current refresh state.
func (c *Client) RefreshStatus(ctx context.Context) (*jobs.RefreshState, error) {
	var state jobs.RefreshState
	if err := c.doJSON(ctx, http.MethodGet, "/api/jobs/refresh/status", nil, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// OpenRefreshEvents subscribes to the refresh progress stream.
func (c *Client) OpenRefreshEvents(ctx context.Context) (jobs.ProgressStream, error) {
	sub, err := c.subscribe(ctx, "/api/jobs/refresh/events", nil)
	if err != nil {
		return nil, fmt.Errorf("open refresh events: %w", err)
	}
	return newRefreshStream(sub), nil
}

// refreshStream adapts the raw SSE subscription to typed refresh events.
type refreshStream struct {
	sub  *sse.Subscription
	out  chan jobs.RefreshEvent
	done chan struct{}
	once sync.Once
}

func newRefreshStream(sub *sse.Subscription) *refreshStream {
	s := &refreshStream{
		sub:  sub,
		out:  make(chan jobs.RefreshEvent),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *refreshStream) pump() {
	defer close(s.out)
	for raw := range s.sub.Events() {
		var ev jobs.RefreshEvent
		if err := json.Unmarshal(raw.Data, &ev); err != nil {
			continue
		}
		if ev.Type == "" && raw.Name != "" && raw.Name != "message" {
			ev.Type = raw.Name
		}
		// The consumer stops reading after a terminal event; Close must
		// unblock a pending send.
		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *refreshStream) Events() <-chan jobs.RefreshEvent { return s.out }
func (s *refreshStream) Err() error                       { return s.sub.Err() }

func (s *refreshStream) Close() {
	s.once.Do(func() { close(s.done) })
	s.sub.Close()
}
