package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/jonathan/outreach-agent/internal/campaign"
	"github.com/jonathan/outreach-agent/internal/schemas"
	"github.com/jonathan/outreach-agent/internal/sse"
)

// Campaign fetches a campaign's persisted {job, state}. In strict mode the
// payload is schema-validated before it is trusted.
func (c *Client) Campaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	path := "/api/campaigns/" + url.PathEscape(id)

	if c.strict {
		raw, err := c.doRaw(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if err := schemas.Validate(schemas.CampaignRecord, raw); err != nil {
			return nil, fmt.Errorf("campaign %s payload rejected: %w", id, err)
		}
		var camp campaign.Campaign
		if err := json.Unmarshal(raw, &camp); err != nil {
			return nil, fmt.Errorf("failed to decode campaign %s: %w", id, err)
		}
		return &camp, nil
	}

	var camp campaign.Campaign
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &camp); err != nil {
		return nil, err
	}
	return &camp, nil
}

// StartRun asks the backend to (re)start the workflow. A 409 surfaces as
// campaign.ErrWorkflowRunning so the controller can attach instead of fail.
func (c *Client) StartRun(ctx context.Context, id string, mode campaign.RunMode) error {
	body := map[string]string{"mode": string(mode)}
	err := c.doJSON(ctx, http.MethodPost, "/api/campaigns/"+url.PathEscape(id)+"/run", nil, body, nil)
	if errors.Is(err, ErrConflict) {
		return fmt.Errorf("campaign %s: %w", id, campaign.ErrWorkflowRunning)
	}
	return err
}

// Confirm posts a confirm request (contact selection, Gmail draft creation,
// follow-up scheduling).
func (c *Client) Confirm(ctx context.Context, id string, req campaign.ConfirmRequest) (*campaign.ConfirmResult, error) {
	var res campaign.ConfirmResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/campaigns/"+url.PathEscape(id)+"/confirm", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Feedback posts draft feedback for a campaign.
func (c *Client) Feedback(ctx context.Context, id string, req campaign.FeedbackRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/campaigns/"+url.PathEscape(id)+"/feedback", nil, req, nil)
}

// OpenEvents subscribes to a campaign's workflow event stream starting at the
// given trace index so reconnects never replay already-applied entries.
func (c *Client) OpenEvents(ctx context.Context, id string, fromIndex int) (campaign.EventStream, error) {
	query := url.Values{"fromIndex": {strconv.Itoa(fromIndex)}}
	sub, err := c.subscribe(ctx, "/api/campaigns/"+url.PathEscape(id)+"/events", query)
	if err != nil {
		return nil, fmt.Errorf("open campaign %s events: %w", id, err)
	}
	return newCampaignStream(sub), nil
}

// campaignStream adapts the raw SSE subscription to the controller's typed
// event stream. Frames that fail to decode are dropped; the reducer already
// ignores unknown event types, and a malformed frame must not kill the
// stream.
type campaignStream struct {
	sub  *sse.Subscription
	out  chan campaign.Event
	done chan struct{}
	once sync.Once
}

func newCampaignStream(sub *sse.Subscription) *campaignStream {
	s := &campaignStream{
		sub:  sub,
		out:  make(chan campaign.Event),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *campaignStream) pump() {
	defer close(s.out)
	for raw := range s.sub.Events() {
		var ev campaign.Event
		if err := json.Unmarshal(raw.Data, &ev); err != nil {
			continue
		}
		if ev.Type == "" && raw.Name != "" && raw.Name != "message" {
			ev.Type = raw.Name
		}
		if ev.Type == "" {
			continue
		}
		// The consumer may stop reading after a terminal event with a
		// decoded frame still in hand; Close must unblock the send.
		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *campaignStream) Events() <-chan campaign.Event { return s.out }
func (s *campaignStream) Err() error                    { return s.sub.Err() }

func (s *campaignStream) Close() {
	s.once.Do(func() { close(s.done) })
	s.sub.Close()
}
