// Package resume implements the résumé upload flow: a multipart upload
// followed by fixed-interval polling of the refinement progress endpoint
// until a terminal step is observed.
package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jonathan/outreach-agent/internal/profile"
)

// DefaultPollInterval is the delay between progress polls.
const DefaultPollInterval = 2 * time.Second

// maxConsecutiveErrors bounds transient poll failures before giving up. A 404
// is not transient; it triggers the candidate-data fallback instead.
const maxConsecutiveErrors = 3

// ErrProgressNotFound indicates the progress record for a task no longer
// exists (HTTP 404). The record may expire before the client starts polling,
// so the poller falls back to checking the profile for résumé content.
var ErrProgressNotFound = errors.New("refinement progress not found")

// UploadAck is the backend's response to a résumé upload.
type UploadAck struct {
	Status string `json:"status"`
	TaskID string `json:"task_id"`
}

// Progress is one refinement progress record. The backend reports the
// current phase in either the status or step field.
type Progress struct {
	Status   string          `json:"status,omitempty"`
	Step     string          `json:"step,omitempty"`
	Progress int             `json:"progress,omitempty"`
	Message  string          `json:"message,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func (p Progress) phase() string {
	if p.Step != "" {
		return p.Step
	}
	return p.Status
}

// Terminal reports whether refinement has finished, successfully or not.
func (p Progress) Terminal() bool {
	switch p.phase() {
	case "complete", "completed", "error":
		return true
	}
	return false
}

// Failed reports whether a terminal record ended in error.
func (p Progress) Failed() bool {
	return p.phase() == "error"
}

// Backend is the slice of the API the upload flow needs.
type Backend interface {
	UploadResume(ctx context.Context, filename string, content io.Reader) (*UploadAck, error)
	RefinementProgress(ctx context.Context, taskID string) (*Progress, error)
	CandidateData(ctx context.Context) (*profile.CandidateData, error)
}

// Result is the outcome of a completed upload flow.
type Result struct {
	// Implicit is set when success was inferred from existing profile
	// content after the progress record went missing.
	Implicit bool
	Message  string
	Data     json.RawMessage
}

// Poller uploads a résumé and tracks its refinement to completion.
type Poller struct {
	backend  Backend
	interval time.Duration
	// OnProgress, when set, fires for every polled progress record.
	OnProgress func(Progress)
}

// NewPoller creates a poller with the given poll interval; zero means
// DefaultPollInterval.
func NewPoller(backend Backend, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{backend: backend, interval: interval}
}

// Run uploads the file and waits for refinement to finish.
func (p *Poller) Run(ctx context.Context, filename string, content io.Reader) (*Result, error) {
	ack, err := p.backend.UploadResume(ctx, filename, content)
	if err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}
	if ack.TaskID == "" {
		return nil, fmt.Errorf("upload accepted but no task id returned")
	}
	return p.Wait(ctx, ack.TaskID)
}

// Wait polls the progress endpoint until a terminal step. When the progress
// record is missing (404) it reconciles by side effect: a profile that
// already has résumé content means the refinement completed before polling
// started.
func (p *Poller) Wait(ctx context.Context, taskID string) (*Result, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		prog, err := p.backend.RefinementProgress(ctx, taskID)
		if err != nil {
			if errors.Is(err, ErrProgressNotFound) {
				return p.reconcile(ctx, taskID)
			}
			failures++
			if failures >= maxConsecutiveErrors {
				return nil, fmt.Errorf("poll refinement progress: %w", err)
			}
			continue
		}
		failures = 0

		if p.OnProgress != nil {
			p.OnProgress(*prog)
		}
		if !prog.Terminal() {
			continue
		}
		if prog.Failed() {
			msg := prog.Message
			if msg == "" {
				msg = "resume refinement failed"
			}
			return nil, fmt.Errorf("resume refinement task %s: %s", taskID, msg)
		}
		return &Result{Message: prog.Message, Data: prog.Data}, nil
	}
}

// reconcile handles the missing-progress-record case.
func (p *Poller) reconcile(ctx context.Context, taskID string) (*Result, error) {
	data, err := p.backend.CandidateData(ctx)
	if err != nil {
		return nil, fmt.Errorf("progress record for task %s missing and profile check failed: %w", taskID, err)
	}
	if !data.HasResume() {
		return nil, fmt.Errorf("progress record for task %s missing and profile has no resume content: %w", taskID, ErrProgressNotFound)
	}
	return &Result{
		Implicit: true,
		Message:  "resume already processed",
	}, nil
}
