package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/outreach-agent/internal/resume"
)

func TestUploadResume_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload-resume", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("resume")
		require.NoError(t, err)
		defer file.Close()

		content, _ := io.ReadAll(file)
		assert.Equal(t, "resume.pdf", header.Filename)
		assert.Equal(t, "pdf bytes", string(content))

		io.WriteString(w, `{"status": "queued", "task_id": "task-1"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	ack, err := c.UploadResume(context.Background(), "resume.pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)

	assert.Equal(t, "queued", ack.Status)
	assert.Equal(t, "task-1", ack.TaskID)
}

func TestUploadResume_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		io.WriteString(w, `{"error": "file too large"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	_, err := c.UploadResume(context.Background(), "resume.pdf", strings.NewReader("x"))
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "file too large", apiErr.Message)
}

func TestRefinementProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/resume-refinement-progress/task-1", r.URL.Path)
		io.WriteString(w, `{"status": "processing", "step": "parsing", "progress": 40}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	prog, err := c.RefinementProgress(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "parsing", prog.Step)
	assert.False(t, prog.Terminal())
}

func TestRefinementProgress_404MapsToProgressNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	_, err := c.RefinementProgress(context.Background(), "task-gone")
	assert.ErrorIs(t, err, resume.ErrProgressNotFound)
}
