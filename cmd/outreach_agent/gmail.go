package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/api"
)

var gmailCmd = &cobra.Command{
	Use:   "gmail",
	Short: "Manage the Gmail integration",
}

var gmailStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether Gmail draft creation is available",
	RunE:  runGmailStatus,
}

var gmailAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Print the URL to authorize Gmail access",
	RunE:  runGmailAuth,
}

var gmailDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Revoke Gmail authorization",
	RunE:  runGmailDisconnect,
}

var gmailDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Create a single Gmail draft",
	RunE:  runGmailDraft,
}

var (
	gmailDraftTo       string
	gmailDraftSubject  string
	gmailDraftBody     string
	gmailDraftBodyFile string
)

func init() {
	gmailDraftCmd.Flags().StringVar(&gmailDraftTo, "to", "", "Recipient email address (required)")
	gmailDraftCmd.Flags().StringVar(&gmailDraftSubject, "subject", "", "Draft subject (required)")
	gmailDraftCmd.Flags().StringVar(&gmailDraftBody, "body", "", "Draft body text")
	gmailDraftCmd.Flags().StringVar(&gmailDraftBodyFile, "body-file", "", "File containing the draft body")
	_ = gmailDraftCmd.MarkFlagRequired("to")
	_ = gmailDraftCmd.MarkFlagRequired("subject")

	gmailCmd.AddCommand(gmailStatusCmd, gmailAuthCmd, gmailDisconnectCmd, gmailDraftCmd)
	rootCmd.AddCommand(gmailCmd)
}

func runGmailStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	client, err := newClient(cfg, store)
	if err != nil {
		return err
	}

	status, err := client.GmailState(cmd.Context())
	if err != nil {
		return err
	}
	store.SetGmailAvailable(status.Authorized)

	p := printer()
	switch {
	case status.Authorized:
		p.PrintNotice("success", "Gmail is authorized, drafts can be created")
	case status.Availability == api.GmailConfigured:
		p.PrintNotice("info", "Gmail is configured but not authorized, run: outreach_agent gmail auth")
	default:
		p.PrintNotice("info", "Gmail integration is not available on this backend")
	}
	return nil
}

func runGmailAuth(cmd *cobra.Command, args []string) error {
	client, err := campaignClient()
	if err != nil {
		return err
	}

	authURL, err := client.GmailAuthURL(cmd.Context())
	if err != nil {
		return err
	}
	p := printer()
	p.PrintNotice("info", "open this URL in your browser to authorize Gmail:")
	fmt.Fprintln(cmd.OutOrStdout(), authURL)
	return nil
}

func runGmailDisconnect(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	client, err := newClient(cfg, store)
	if err != nil {
		return err
	}

	if err := client.GmailDisconnect(cmd.Context()); err != nil {
		return err
	}
	store.SetGmailAvailable(false)
	printer().PrintNotice("success", "Gmail disconnected")
	return nil
}

func runGmailDraft(cmd *cobra.Command, args []string) error {
	body := gmailDraftBody
	if gmailDraftBodyFile != "" {
		raw, err := os.ReadFile(gmailDraftBodyFile)
		if err != nil {
			return fmt.Errorf("read body file: %w", err)
		}
		body = string(raw)
	}
	if body == "" {
		return fmt.Errorf("either --body or --body-file is required")
	}

	client, err := campaignClient()
	if err != nil {
		return err
	}

	err = client.CreateGmailDraft(cmd.Context(), api.GmailDraftRequest{
		RecipientEmail: gmailDraftTo,
		Subject:        gmailDraftSubject,
		Body:           body,
	})
	if err != nil {
		return err
	}
	printer().PrintNotice("success", "draft created in Gmail")
	return nil
}
