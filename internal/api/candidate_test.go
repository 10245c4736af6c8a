package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/outreach-agent/internal/profile"
)

func TestCandidateData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/candidate-data", r.URL.Path)
		io.WriteString(w, `{
			"name": "Dana Reyes",
			"email": "dana@example.com",
			"resume": {"skills": ["Go", "Kubernetes"]}
		}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	data, err := c.CandidateData(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Dana Reyes", data.Name)
	assert.True(t, data.HasResume())
}

func TestUpdateCandidateData_ValidatesBeforeNetwork(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})

	err := c.UpdateCandidateData(context.Background(), &profile.CandidateData{Email: "dana@example.com"})
	assert.Error(t, err, "missing name must be rejected")
	assert.False(t, called)

	err = c.UpdateCandidateData(context.Background(), &profile.CandidateData{Name: "Dana Reyes"})
	assert.NoError(t, err)
	assert.True(t, called)
}
