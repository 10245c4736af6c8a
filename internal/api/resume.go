package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/jonathan/outreach-agent/internal/resume"
)

// UploadResume uploads a résumé file as multipart form data. The backend
// queues a refinement task and returns its id for progress polling.
func (c *Client) UploadResume(ctx context.Context, filename string, content io.Reader) (*resume.UploadAck, error) {
	if err := c.checkSession(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("resume", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read resume file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/upload-resume", nil), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resume upload failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.errorFrom(resp)
	}

	var ack resume.UploadAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &ack, nil
}

// RefinementProgress polls a refinement task. A 404 surfaces as
// resume.ErrProgressNotFound so the poller can fall back to the profile
// check.
func (c *Client) RefinementProgress(ctx context.Context, taskID string) (*resume.Progress, error) {
	var prog resume.Progress
	err := c.doJSON(ctx, http.MethodGet, "/api/resume-refinement-progress/"+url.PathEscape(taskID), nil, nil, &prog)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("task %s: %w", taskID, resume.ErrProgressNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}
