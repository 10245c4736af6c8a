package main

import (
	"encoding/json"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/api"
	"github.com/jonathan/outreach-agent/internal/campaign"
	"github.com/jonathan/outreach-agent/internal/tui"
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Inspect and drive application campaigns",
}

var campaignShowCmd = &cobra.Command{
	Use:   "show <campaign-id>",
	Short: "Show a campaign's workflow state and artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignShow,
}

var campaignRunCmd = &cobra.Command{
	Use:   "run <campaign-id>",
	Short: "Start or restart the campaign workflow and follow it to the next checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignRun,
}

var campaignWatchCmd = &cobra.Command{
	Use:   "watch <campaign-id>",
	Short: "Follow a campaign's live progress interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignWatch,
}

var campaignConfirmCmd = &cobra.Command{
	Use:   "confirm <campaign-id>",
	Short: "Confirm outreach contacts and regenerate drafts",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignConfirm,
}

var campaignFeedbackCmd = &cobra.Command{
	Use:   "feedback <campaign-id>",
	Short: "Send draft feedback and regenerate drafts",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignFeedback,
}

var campaignGmailDraftsCmd = &cobra.Command{
	Use:   "gmail-drafts <campaign-id>",
	Short: "Create Gmail drafts from the campaign's outreach drafts",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignGmailDrafts,
}

var (
	campaignDraftOnly     bool
	campaignRecruiter     string
	campaignHiringManager string
	campaignWarmIntro     string
	campaignFeedbackScope string
	campaignFeedbackText  string
	campaignFeedbackMust  bool
)

func init() {
	campaignRunCmd.Flags().BoolVar(&campaignDraftOnly, "draft-only", false, "Regenerate drafts only, keeping research and evidence")

	campaignConfirmCmd.Flags().StringVar(&campaignRecruiter, "recruiter", "", "Contact name to select as recruiter")
	campaignConfirmCmd.Flags().StringVar(&campaignHiringManager, "hiring-manager", "", "Contact name to select as hiring manager")
	campaignConfirmCmd.Flags().StringVar(&campaignWarmIntro, "warm-intro", "", "Contact name to select as warm intro")

	campaignFeedbackCmd.Flags().StringVar(&campaignFeedbackScope, "scope", "drafts", "Draft scope the feedback applies to")
	campaignFeedbackCmd.Flags().StringVar(&campaignFeedbackText, "text", "", "Feedback text (required)")
	campaignFeedbackCmd.Flags().BoolVar(&campaignFeedbackMust, "must", false, "Mark the feedback as a hard requirement")
	_ = campaignFeedbackCmd.MarkFlagRequired("text")

	campaignCmd.AddCommand(campaignShowCmd, campaignRunCmd, campaignWatchCmd,
		campaignConfirmCmd, campaignFeedbackCmd, campaignGmailDraftsCmd)
	rootCmd.AddCommand(campaignCmd)
}

func campaignClient() (*api.Client, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return newClient(cfg, store)
}

// contactsFromArtifact decodes the contacts artifact, if present.
func contactsFromArtifact(st campaign.State) []campaign.Contact {
	raw, ok := st.Artifacts[campaign.ArtifactContacts]
	if !ok {
		return nil
	}
	var contacts []campaign.Contact
	if err := json.Unmarshal(raw, &contacts); err != nil {
		return nil
	}
	return contacts
}

func runCampaignShow(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	camp, err := client.Campaign(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	p := printer()
	p.PrintCampaign(camp)
	if contacts := contactsFromArtifact(camp.State); len(contacts) > 0 {
		p.PrintContacts(contacts, camp.State.SelectedContacts)
	}
	return nil
}

// completionWaiter signals once a run that was observed in progress has
// stopped running and streaming.
type completionWaiter struct {
	mu      sync.Mutex
	started bool
	done    chan struct{}
	once    sync.Once
}

func newCompletionWaiter() *completionWaiter {
	return &completionWaiter{done: make(chan struct{})}
}

func (w *completionWaiter) onState(s campaign.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s.Running || s.Streaming {
		w.started = true
		return
	}
	if w.started {
		w.once.Do(func() { close(w.done) })
	}
}

func runCampaignRun(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	p := printer()
	waiter := newCompletionWaiter()
	ctrl := campaign.NewController(client, args[0], campaign.Hooks{
		OnState: waiter.onState,
		OnNotice: func(n campaign.Notice) {
			p.PrintNotice(string(n.Level), n.Message)
		},
	})
	defer ctrl.Close()

	if err := ctrl.Fetch(cmd.Context()); err != nil {
		return err
	}

	mode := campaign.RunFull
	if campaignDraftOnly {
		mode = campaign.RunDraftOnly
	}
	if err := ctrl.Run(cmd.Context(), mode); err != nil {
		return err
	}

	select {
	case <-waiter.done:
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}

	snap := ctrl.Snapshot()
	p.PrintCampaign(&campaign.Campaign{ID: snap.ID, Job: snap.Job, State: snap.State})
	if contacts := contactsFromArtifact(snap.State); len(contacts) > 0 {
		p.PrintContacts(contacts, snap.State.SelectedContacts)
	}
	return nil
}

func runCampaignWatch(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	updates := make(chan tea.Msg, 64)
	ctrl := campaign.NewController(client, args[0], campaign.Hooks{
		OnState: func(s campaign.Snapshot) {
			select {
			case updates <- tui.StateMsg(s):
			default:
			}
		},
		OnNotice: func(n campaign.Notice) {
			select {
			case updates <- tui.NoticeMsg(n):
			default:
			}
		},
	})
	defer ctrl.Close()

	// Fetch resumes streaming automatically when a step is still running.
	if err := ctrl.Fetch(cmd.Context()); err != nil {
		return err
	}

	prog := tea.NewProgram(tui.New(updates), tea.WithContext(cmd.Context()))
	_, err = prog.Run()
	return err
}

func runCampaignConfirm(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	p := printer()
	waiter := newCompletionWaiter()
	ctrl := campaign.NewController(client, args[0], campaign.Hooks{
		OnState: waiter.onState,
		OnNotice: func(n campaign.Notice) {
			p.PrintNotice(string(n.Level), n.Message)
		},
	})
	defer ctrl.Close()

	if err := ctrl.Fetch(cmd.Context()); err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	contacts := contactsFromArtifact(snap.State)
	byName := make(map[string]campaign.Contact, len(contacts))
	for _, c := range contacts {
		byName[c.Name] = c
	}

	sel := snap.State.SelectedContacts
	for role, name := range map[campaign.ContactRole]string{
		campaign.RoleRecruiter:     campaignRecruiter,
		campaign.RoleHiringManager: campaignHiringManager,
		campaign.RoleWarmIntro:     campaignWarmIntro,
	} {
		if name == "" {
			continue
		}
		contact, ok := byName[name]
		if !ok {
			return fmt.Errorf("no contact named %q in this campaign", name)
		}
		sel = sel.Select(role, contact)
	}

	if err := ctrl.ConfirmContacts(cmd.Context(), sel); err != nil {
		return err
	}

	select {
	case <-waiter.done:
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}

	final := ctrl.Snapshot()
	p.PrintCampaign(&campaign.Campaign{ID: final.ID, Job: final.Job, State: final.State})
	return nil
}

func runCampaignFeedback(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	p := printer()
	waiter := newCompletionWaiter()
	ctrl := campaign.NewController(client, args[0], campaign.Hooks{
		OnState: waiter.onState,
		OnNotice: func(n campaign.Notice) {
			p.PrintNotice(string(n.Level), n.Message)
		},
	})
	defer ctrl.Close()

	if err := ctrl.Fetch(cmd.Context()); err != nil {
		return err
	}

	err = ctrl.Feedback(cmd.Context(), campaign.FeedbackRequest{
		Scope: campaignFeedbackScope,
		Text:  campaignFeedbackText,
		Must:  campaignFeedbackMust,
	})
	if err != nil {
		return err
	}

	select {
	case <-waiter.done:
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}

	final := ctrl.Snapshot()
	p.PrintCampaign(&campaign.Campaign{ID: final.ID, Job: final.Job, State: final.State})
	return nil
}

func runCampaignGmailDrafts(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	p := printer()
	ctrl := campaign.NewController(client, args[0], campaign.Hooks{
		OnNotice: func(n campaign.Notice) {
			p.PrintNotice(string(n.Level), n.Message)
		},
	})
	defer ctrl.Close()

	if err := ctrl.Fetch(cmd.Context()); err != nil {
		return err
	}

	_, err = ctrl.CreateGmailDrafts(cmd.Context())
	return err
}
