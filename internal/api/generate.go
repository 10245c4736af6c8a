package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Content kinds accepted by the generate endpoint.
const (
	GenerateCoverLetter = "cover_letter"
	GenerateEmail       = "email"
	GenerateResume      = "resume"
)

// GenerateRequest asks the backend to produce application content from a job
// posting. Either the description text or a URL must be provided.
type GenerateRequest struct {
	Kind           string `json:"kind" validate:"required,oneof=cover_letter email resume"`
	JobDescription string `json:"job_description,omitempty"`
	JobURL         string `json:"job_url,omitempty"`
	PersonName     string `json:"person_name,omitempty"`
	PersonEmail    string `json:"person_email,omitempty" validate:"omitempty,email"`
}

// Validate validates the GenerateRequest using the validator, plus the
// description/URL requirement the tags cannot express.
func (r *GenerateRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.JobDescription == "" && r.JobURL == "" {
		return errEmptyJobInput
	}
	return nil
}

var errEmptyJobInput = errors.New("either a job description or a job URL is required")

// GenerateResponse carries either the generated content directly or, for
// résumé tailoring, a queued task id for async polling.
type GenerateResponse struct {
	Status  string `json:"status,omitempty"`
	Content string `json:"content,omitempty"`
	TaskID  string `json:"task_id,omitempty"`
}

// Generate posts a generation request.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var res GenerateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
