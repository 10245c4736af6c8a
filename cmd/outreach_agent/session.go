package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/state"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the stored backend session",
}

var sessionSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a backend session token for later commands",
	RunE:  runSessionSet,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored session",
	RunE:  runSessionShow,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session and all local state",
	RunE:  runLogout,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past content generations",
	RunE:  runHistory,
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a history entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRemove,
}

var (
	sessionToken  string
	sessionEmail  string
	sessionUserID string
)

func init() {
	sessionSetCmd.Flags().StringVar(&sessionToken, "token", "", "Session token from the backend login (required)")
	sessionSetCmd.Flags().StringVar(&sessionEmail, "email", "", "Account email, shown by session show")
	sessionSetCmd.Flags().StringVar(&sessionUserID, "user-id", "", "Account user id")
	_ = sessionSetCmd.MarkFlagRequired("token")

	sessionCmd.AddCommand(sessionSetCmd, sessionShowCmd)
	historyCmd.AddCommand(historyRemoveCmd)
	rootCmd.AddCommand(sessionCmd, logoutCmd, historyCmd)
}

func runSessionSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	err = store.SetSession(state.Session{
		UserID: sessionUserID,
		Email:  sessionEmail,
		Token:  sessionToken,
	})
	if err != nil {
		return err
	}
	printer().PrintNotice("success", "session stored")
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sess := store.Session()
	if !sess.Active() {
		printer().PrintNotice("info", "no stored session, run: outreach_agent session set --token <token>")
		return nil
	}
	out := cmd.OutOrStdout()
	if sess.Email != "" {
		fmt.Fprintf(out, "email:   %s\n", sess.Email)
	}
	if sess.UserID != "" {
		fmt.Fprintf(out, "user id: %s\n", sess.UserID)
	}
	fmt.Fprintf(out, "token:   %s\n", truncateToken(sess.Token))
	return nil
}

// truncateToken keeps enough of the token to recognize it without printing
// the whole credential.
func truncateToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Reset(); err != nil {
		return err
	}
	printer().PrintNotice("success", "logged out, local state cleared")
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	convs := store.Conversations()
	if len(convs) == 0 {
		printer().PrintNotice("info", "no generation history yet")
		return nil
	}
	out := cmd.OutOrStdout()
	for _, c := range convs {
		fmt.Fprintf(out, "%s  %s  %s\n", c.ID, c.UpdatedAt, c.Title)
	}
	return nil
}

func runHistoryRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.RemoveConversation(args[0]); err != nil {
		return err
	}
	printer().PrintNotice("success", "history entry removed")
	return nil
}
