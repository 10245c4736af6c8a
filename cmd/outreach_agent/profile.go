package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View and edit your candidate profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the candidate profile as JSON",
	RunE:  runProfileShow,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace the candidate profile from a JSON file",
	Long: `Replace the candidate profile with the contents of a JSON file. Updates are
full replacements; start from "profile show" output to avoid losing fields.`,
	RunE: runProfileUpdate,
}

var profileFile string

func init() {
	profileUpdateCmd.Flags().StringVarP(&profileFile, "file", "f", "", "JSON file with the new profile (required)")
	_ = profileUpdateCmd.MarkFlagRequired("file")

	profileCmd.AddCommand(profileShowCmd, profileUpdateCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
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

	data, err := client.CandidateData(cmd.Context())
	if err != nil {
		return err
	}

	store.SetResumeUploaded(data.HasResume())
	store.SetProfileComplete(data.Name != "" && data.Email != "")

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(profileFile)
	if err != nil {
		return fmt.Errorf("read profile file: %w", err)
	}
	var data profile.CandidateData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse profile file: %w", err)
	}
	if err := data.Validate(); err != nil {
		return err
	}

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

	if err := client.UpdateCandidateData(cmd.Context(), &data); err != nil {
		return err
	}
	store.SetProfileComplete(data.Name != "" && data.Email != "")
	printer().PrintNotice("success", "profile updated")
	return nil
}
