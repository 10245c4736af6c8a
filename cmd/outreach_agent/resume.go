package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/resume"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Upload and refine your résumé",
}

var resumeUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a résumé and wait for refinement to finish",
	Args:  cobra.ExactArgs(1),
	RunE:  runResumeUpload,
}

var resumePollInterval int

func init() {
	resumeUploadCmd.Flags().IntVar(&resumePollInterval, "poll-interval", 0, "Seconds between progress polls (0 uses the default)")
	resumeCmd.AddCommand(resumeUploadCmd)
	rootCmd.AddCommand(resumeCmd)
}

func runResumeUpload(cmd *cobra.Command, args []string) error {
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

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open resume file: %w", err)
	}
	defer f.Close()

	p := printer()
	poller := resume.NewPoller(client, time.Duration(resumePollInterval)*time.Second)
	poller.OnProgress = func(prog resume.Progress) {
		if prog.Message != "" {
			p.PrintNotice("info", prog.Message)
		}
	}

	p.PrintNotice("info", "uploading "+filepath.Base(args[0]))
	result, err := poller.Run(cmd.Context(), filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	if result.Implicit {
		p.PrintNotice("success", result.Message)
	} else {
		p.PrintNotice("success", "resume refined and saved to your profile")
	}
	store.SetResumeUploaded(true)
	return nil
}
