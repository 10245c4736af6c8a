package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonathan/outreach-agent/internal/profile"
)

// CandidateData fetches the full candidate profile.
func (c *Client) CandidateData(ctx context.Context) (*profile.CandidateData, error) {
	var data profile.CandidateData
	if err := c.doJSON(ctx, http.MethodGet, "/api/candidate-data", nil, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// UpdateCandidateData replaces the full candidate profile. The record is
// validated before any network call.
func (c *Client) UpdateCandidateData(ctx context.Context, data *profile.CandidateData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("invalid candidate data: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, "/api/update-candidate-data", nil, data, nil)
}
