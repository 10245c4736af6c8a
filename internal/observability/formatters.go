// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/outreach-agent/internal/campaign"
	"github.com/jonathan/outreach-agent/internal/jobs"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// stepOrder is the display order for workflow steps.
var stepOrder = []campaign.StepName{
	campaign.StepResearch,
	campaign.StepEvidence,
	campaign.StepDrafts,
	campaign.StepSchedule,
	campaign.StepGmail,
}

// Printer handles formatted output for command results
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func stepGlyph(status campaign.StepResult) string {
	switch status {
	case campaign.StepStatusDone:
		return "✓"
	case campaign.StepStatusRunning:
		return "▶"
	case campaign.StepStatusError:
		return "✗"
	default:
		return "·"
	}
}

// PrintCampaign outputs a human-readable summary of a campaign and its
// workflow state.
func (p *Printer) PrintCampaign(c *campaign.Campaign) {
	if c == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role:     %s\n", c.Job.Title))
	sb.WriteString(fmt.Sprintf("Company:  %s\n", c.Job.CompanyName))
	if c.Job.Location != "" {
		sb.WriteString(fmt.Sprintf("Location: %s\n", c.Job.Location))
	}
	sb.WriteString(fmt.Sprintf("Phase:    %s\n", c.State.Phase))
	sb.WriteString("\n")

	sb.WriteString("Steps:\n")
	for _, step := range stepOrder {
		status, ok := c.State.Steps[step]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", stepGlyph(status.Status), step))
	}

	if len(c.State.Artifacts) > 0 {
		sb.WriteString("\nArtifacts:\n")
		for _, kind := range []campaign.ArtifactKind{
			campaign.ArtifactContacts,
			campaign.ArtifactEvidencePack,
			campaign.ArtifactDrafts,
			campaign.ArtifactFollowups,
		} {
			if _, ok := c.State.Artifacts[kind]; ok {
				sb.WriteString(fmt.Sprintf("  • %s\n", kind))
			}
		}
	}

	p.printBox("CAMPAIGN "+c.ID, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintContacts outputs discovered contacts with the role each one is
// selected for, if any.
func (p *Printer) PrintContacts(contacts []campaign.Contact, selected campaign.SelectedContacts) {
	if len(contacts) == 0 {
		return
	}

	roleByName := make(map[string]campaign.ContactRole, len(selected))
	for role, contact := range selected {
		roleByName[contact.Name] = role
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d contacts:\n\n", len(contacts)))

	for i, c := range contacts {
		marker := " "
		if role, ok := roleByName[c.Name]; ok {
			marker = "★"
			sb.WriteString(fmt.Sprintf("%s %s (%s)\n", marker, c.Name, role))
		} else {
			sb.WriteString(fmt.Sprintf("%s %s\n", marker, c.Name))
		}
		if c.Title != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", c.Title))
		}
		if c.Reason != "" {
			reason := c.Reason
			if len(reason) > 50 {
				reason = reason[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  %s\n", reason))
		}
		if i < len(contacts)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("CONTACTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJobFeed outputs one page of the discovery feed.
func (p *Printer) PrintJobFeed(page *jobs.FeedPage) {
	if page == nil {
		return
	}
	if len(page.Jobs) == 0 {
		p.printBox("JOB FEED", "No jobs matched the current filters.")
		return
	}

	var sb strings.Builder
	for i, job := range page.Jobs {
		title := job.Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("%s  %s\n", job.ID, title))
		line := "  " + job.CompanyName
		if job.Location != "" {
			line += " · " + job.Location
		}
		sb.WriteString(line + "\n")
		if job.SavedStatus != jobs.SavedStatusNone {
			sb.WriteString(fmt.Sprintf("  [%s]\n", job.SavedStatus))
		}
		if i < len(page.Jobs)-1 {
			sb.WriteString("\n")
		}
	}

	sb.WriteString(fmt.Sprintf("\nPage %d of %d (%d jobs total)", page.Page, page.TotalPages, page.Total))
	p.printBox("JOB FEED", sb.String())
}

// PrintRefreshProgress outputs board refresh progress.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRefreshProgress(state jobs.RefreshState) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:   %s\n", state.Status))
	if state.Progress.Phase != "" {
		sb.WriteString(fmt.Sprintf("Phase:    %s\n", state.Progress.Phase))
	}
	if state.Progress.Total > 0 {
		sb.WriteString(fmt.Sprintf("Boards:   %d/%d\n", state.Progress.Current, state.Progress.Total))
	}
	if state.Progress.JobsFound > 0 {
		sb.WriteString(fmt.Sprintf("Found:    %d jobs\n", state.Progress.JobsFound))
	}

	if len(state.Progress.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		count := min(len(state.Progress.Errors), maxItemsToShow)
		for i := 0; i < count; i++ {
			msg := state.Progress.Errors[i]
			if len(msg) > 50 {
				msg = msg[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", msg))
		}
		if len(state.Progress.Errors) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(state.Progress.Errors)-maxItemsToShow))
		}
	}

	p.printBox("BOARD REFRESH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintNotice outputs a one-line notice outside any box.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintNotice(level, message string) {
	switch level {
	case "error":
		fmt.Fprintf(p.out, "✗ %s\n", message)
	case "success":
		fmt.Fprintf(p.out, "✓ %s\n", message)
	default:
		fmt.Fprintf(p.out, "• %s\n", message)
	}
}
