package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Gmail availability values reported by the backend.
const (
	GmailUnavailable = "unavailable"
	GmailConfigured  = "configured"
	GmailAuthorized  = "authorized"
)

// GmailStatus is the backend's Gmail integration state for this user.
type GmailStatus struct {
	Availability string `json:"availability"`
	Authorized   bool   `json:"authorized"`
}

// GmailDraftRequest creates one draft in the user's Gmail account.
type GmailDraftRequest struct {
	RecipientEmail string `json:"recipient_email" validate:"required,email"`
	Subject        string `json:"subject" validate:"required"`
	Body           string `json:"body" validate:"required"`
}

// Validate validates the GmailDraftRequest using the validator.
func (r *GmailDraftRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// GmailState fetches the Gmail integration status.
func (c *Client) GmailState(ctx context.Context) (*GmailStatus, error) {
	var status GmailStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/gmail/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GmailAuthorized reports whether Gmail draft creation is available. It is
// the gate the campaign controller checks before creating drafts.
func (c *Client) GmailAuthorized(ctx context.Context) (bool, error) {
	status, err := c.GmailState(ctx)
	if err != nil {
		return false, err
	}
	return status.Authorized, nil
}

// GmailAuthURL returns the URL the user visits to authorize Gmail access.
// The OAuth flow itself happens between the browser and the backend.
func (c *Client) GmailAuthURL(ctx context.Context) (string, error) {
	var res struct {
		AuthURL string `json:"auth_url"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/gmail/auth", nil, nil, &res); err != nil {
		return "", err
	}
	return res.AuthURL, nil
}

// GmailDisconnect revokes the backend's Gmail authorization.
func (c *Client) GmailDisconnect(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/gmail/disconnect", nil, nil, nil)
}

// CreateGmailDraft creates a single draft directly, outside a campaign.
func (c *Client) CreateGmailDraft(ctx context.Context, req GmailDraftRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, "/api/gmail/draft", nil, req, nil)
}
