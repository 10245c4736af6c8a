package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse and manage discovered job listings",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs from the discovery feed",
	RunE:  runJobsList,
}

var jobsExtractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract a job posting from a URL and add it to the feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsExtract,
}

var jobsSaveCmd = &cobra.Command{
	Use:   "save <job-id>",
	Short: "Save a job for later",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsSave,
}

var jobsStartCampaignCmd = &cobra.Command{
	Use:   "start-campaign <job-id>",
	Short: "Create a campaign for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStartCampaign,
}

var jobsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh job boards and follow the progress",
	RunE:  runJobsRefresh,
}

var (
	jobsATS      string
	jobsQuery    string
	jobsLocation string
	jobsCompany  string
	jobsPage     int
	jobsPageSize int
)

func init() {
	for _, c := range []*cobra.Command{jobsListCmd, jobsRefreshCmd} {
		c.Flags().StringVar(&jobsATS, "ats", "", "Filter by applicant tracking system (greenhouse, lever, ashby)")
		c.Flags().StringVarP(&jobsQuery, "query", "q", "", "Full-text search query")
		c.Flags().StringVar(&jobsLocation, "location", "", "Filter by location")
		c.Flags().StringVar(&jobsCompany, "company", "", "Filter by company name")
	}
	jobsListCmd.Flags().IntVar(&jobsPage, "page", 1, "Feed page to fetch")
	jobsListCmd.Flags().IntVar(&jobsPageSize, "page-size", 0, "Jobs per page (0 uses the backend default)")

	jobsCmd.AddCommand(jobsListCmd, jobsExtractCmd, jobsSaveCmd, jobsStartCampaignCmd, jobsRefreshCmd)
	rootCmd.AddCommand(jobsCmd)
}

func feedQueryFromFlags() jobs.FeedQuery {
	return jobs.FeedQuery{
		ATS:      jobsATS,
		Query:    jobsQuery,
		Location: jobsLocation,
		Company:  jobsCompany,
		Page:     jobsPage,
		PageSize: jobsPageSize,
	}
}

func runJobsList(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	page, err := client.Feed(cmd.Context(), feedQueryFromFlags())
	if err != nil {
		return err
	}
	printer().PrintJobFeed(page)
	return nil
}

func runJobsExtract(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	res, err := client.ExtractJob(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("extraction failed: %s", res.Message)
	}
	printer().PrintNotice("success", fmt.Sprintf("extracted %s at %s (id %s)", res.Job.Title, res.Job.CompanyName, res.Job.ID))
	return nil
}

func runJobsSave(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	if err := client.SaveJob(cmd.Context(), args[0]); err != nil {
		return err
	}
	printer().PrintNotice("success", "job saved")
	return nil
}

func runJobsStartCampaign(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	res, err := client.StartCampaign(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	p := printer()
	p.PrintNotice("success", "campaign created: "+res.CampaignID)
	p.PrintNotice("info", fmt.Sprintf("run it with: outreach_agent campaign run %s", res.CampaignID))
	return nil
}

// refreshWaiter signals once the refresh either delivered the reloaded feed or
// ended in an error the controller will not recover from.
type refreshWaiter struct {
	mu     sync.Mutex
	status string
	done   chan struct{}
	once   sync.Once
}

func newRefreshWaiter() *refreshWaiter {
	return &refreshWaiter{done: make(chan struct{})}
}

func (w *refreshWaiter) finish() {
	w.once.Do(func() { close(w.done) })
}

func (w *refreshWaiter) onState(s jobs.RefreshState) {
	w.mu.Lock()
	w.status = s.Status
	w.mu.Unlock()
	if s.Status == jobs.RefreshError {
		w.finish()
	}
}

func (w *refreshWaiter) failed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status == jobs.RefreshError
}

func runJobsRefresh(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	p := printer()
	waiter := newRefreshWaiter()
	ctrl := jobs.NewRefreshController(client, feedQueryFromFlags(), jobs.RefreshHooks{
		OnState: func(s jobs.RefreshState) {
			waiter.onState(s)
			if s.Status == jobs.RefreshRunning {
				p.PrintRefreshProgress(s)
			}
		},
		OnFeed: func(page *jobs.FeedPage) {
			p.PrintJobFeed(page)
			waiter.finish()
		},
		OnNotice: func(level, message string) {
			p.PrintNotice(level, message)
			// The reload after a completed refresh can itself fail, in
			// which case OnFeed never fires.
			if level == "error" && !waiter.failed() {
				waiter.finish()
			}
		},
	})
	defer ctrl.Close()

	if err := ctrl.Start(cmd.Context()); err != nil {
		return err
	}

	select {
	case <-waiter.done:
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}

	if waiter.failed() {
		return fmt.Errorf("job refresh failed")
	}
	return nil
}
