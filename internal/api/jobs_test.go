package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/outreach-agent/internal/jobs"
)

const feedBody = `{
	"jobs": [
		{"id": "j-1", "title": "SRE", "company_name": "Acme", "saved_status": "saved"},
		{"id": "j-2", "title": "Platform Engineer", "company_name": "Globex"}
	],
	"page": 2,
	"page_size": 20,
	"total": 33,
	"total_pages": 2
}`

func TestFeed_PassesFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jobs/feed", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "platform", q.Get("q"))
		assert.Equal(t, "remote", q.Get("location"))
		io.WriteString(w, feedBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	page, err := c.Feed(context.Background(), jobs.FeedQuery{Page: 2, Query: "platform", Location: "remote"})
	require.NoError(t, err)

	assert.Equal(t, 33, page.Total)
	require.Len(t, page.Jobs, 2)
	assert.Equal(t, jobs.SavedStatusSaved, page.Jobs[0].SavedStatus)
}

func TestFeed_StrictMode_RejectsBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"jobs": "none", "page": 1, "total": 0}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{StrictSchemas: true})
	_, err := c.Feed(context.Background(), jobs.FeedQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload rejected")
}

func TestExtractJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"url": "https://jobs.lever.co/acme/123"}`, string(body))
		io.WriteString(w, `{"success": true, "job": {"id": "j-9", "title": "SRE", "company_name": "Acme"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	res, err := c.ExtractJob(context.Background(), "https://jobs.lever.co/acme/123")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "j-9", res.Job.ID)
}

func TestStartRefresh_MapsConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"error": "refresh already running"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	err := c.StartRefresh(context.Background())
	assert.ErrorIs(t, err, jobs.ErrRefreshRunning)
}

func TestRefreshStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jobs/refresh/status", r.URL.Path)
		io.WriteString(w, `{"status": "running", "progress": {"phase": "scraping", "current": 2, "total": 9}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	state, err := c.RefreshStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, jobs.RefreshRunning, state.Status)
	assert.Equal(t, 2, state.Progress.Current)
}

func TestOpenRefreshEvents_CloseUnblocksPendingSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)

		io.WriteString(w, "data: {\"type\": \"complete\", \"status\": \"completed\"}\n\n")
		io.WriteString(w, "data: {\"type\": \"progress\", \"phase\": \"late\"}\n\n")
		fl.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	stream, err := c.OpenRefreshEvents(context.Background())
	require.NoError(t, err)

	// Stop consuming after the terminal event, leaving the trailing frame
	// decoded and pending delivery.
	ev := <-stream.Events()
	assert.True(t, ev.Terminal())
	stream.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-stream.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel never closed after Close")
		}
	}
}

func TestOpenRefreshEvents_DecodesProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jobs/refresh/events", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)

		io.WriteString(w, "data: {\"type\": \"progress\", \"phase\": \"scraping\", \"jobs_found\": 12}\n\n")
		fl.Flush()
		io.WriteString(w, "data: {\"type\": \"complete\", \"status\": \"completed\"}\n\n")
		fl.Flush()
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	stream, err := c.OpenRefreshEvents(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	var got []jobs.RefreshEvent
	for ev := range stream.Events() {
		got = append(got, ev)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "scraping", got[0].Phase)
	assert.Equal(t, 12, got[0].JobsFound)
	assert.True(t, got[1].Terminal())
}

func TestSaveJob_And_StartCampaign(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		io.WriteString(w, `{"campaign_id": "c-7"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	require.NoError(t, c.SaveJob(context.Background(), "j-1"))

	res, err := c.StartCampaign(context.Background(), "j-1")
	require.NoError(t, err)
	assert.Equal(t, "c-7", res.CampaignID)
	assert.Equal(t, []string{"/api/jobs/j-1/save", "/api/jobs/j-1/start-campaign"}, paths)
}
