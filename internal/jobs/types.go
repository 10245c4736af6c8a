// Package jobs provides the job-discovery view models: the paginated feed and
// the controller for the long-running board refresh observed over an event
// stream.
package jobs

import (
	"net/url"
	"strconv"
)

// Saved statuses reported by the backend for a feed entry.
const (
	SavedStatusNone            = ""
	SavedStatusSaved           = "saved"
	SavedStatusCampaignStarted = "campaign_started"
	SavedStatusArchived        = "archived"
)

// JobPost is one scraped posting in the feed.
type JobPost struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	CompanyName    string `json:"company_name"`
	Location       string `json:"location,omitempty"`
	Team           string `json:"team,omitempty"`
	EmploymentType string `json:"employment_type,omitempty"`
	URL            string `json:"url,omitempty"`
	ATSType        string `json:"ats_type,omitempty"`
	SavedStatus    string `json:"saved_status,omitempty"`
}

// FeedQuery holds the feed filters and pagination.
type FeedQuery struct {
	ATS      string
	Query    string
	Location string
	Company  string
	Page     int
	PageSize int
}

// Values encodes the query for the feed endpoint, omitting empty filters.
func (q FeedQuery) Values() url.Values {
	v := url.Values{}
	if q.ATS != "" {
		v.Set("ats", q.ATS)
	}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.Company != "" {
		v.Set("company", q.Company)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// FirstPage returns the query reset to page one, keeping filters and size.
func (q FeedQuery) FirstPage() FeedQuery {
	q.Page = 1
	return q
}

// FeedPage is one page of the job feed.
type FeedPage struct {
	Jobs       []JobPost `json:"jobs"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
}

// ExtractResult is the backend's answer to "extract a job from this URL".
type ExtractResult struct {
	Success bool    `json:"success"`
	Job     JobPost `json:"job"`
	Message string  `json:"message,omitempty"`
}

// StartCampaignResult is returned when a campaign is started from a posting.
type StartCampaignResult struct {
	CampaignID string `json:"campaign_id"`
	Message    string `json:"message,omitempty"`
}

// Refresh statuses. The refresh state is ephemeral and driven entirely by
// streamed server events.
const (
	RefreshIdle      = "idle"
	RefreshRunning   = "running"
	RefreshCompleted = "completed"
	RefreshError     = "error"
)

// RefreshProgress is the progress payload carried by refresh events.
type RefreshProgress struct {
	Phase     string   `json:"phase,omitempty"`
	Message   string   `json:"message,omitempty"`
	Current   int      `json:"current,omitempty"`
	Total     int      `json:"total,omitempty"`
	JobsFound int      `json:"jobs_found,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// RefreshState is the client-side view of a refresh operation.
type RefreshState struct {
	Status   string          `json:"status"`
	Progress RefreshProgress `json:"progress"`
}

// RefreshEvent is one event from the refresh progress stream.
type RefreshEvent struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	RefreshProgress
}

// Terminal reports whether the event ends the refresh.
func (e RefreshEvent) Terminal() bool {
	switch e.Type {
	case "complete", "completed", "error":
		return true
	}
	switch e.Status {
	case RefreshCompleted, RefreshError:
		return true
	}
	return false
}

// Failed reports whether a terminal event ended in error.
func (e RefreshEvent) Failed() bool {
	return e.Type == "error" || e.Status == RefreshError
}
