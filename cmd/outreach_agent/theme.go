package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme [system|light|dark]",
	Short: "Show or set the web client theme",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTheme,
}

func init() {
	rootCmd.AddCommand(themeCmd)
}

func validTheme(name string) bool {
	switch name {
	case "system", "light", "dark":
		return true
	}
	return false
}

func runTheme(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && !validTheme(args[0]) {
		return fmt.Errorf("unknown theme %q (expected system, light or dark)", args[0])
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

	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), store.Theme())
		return nil
	}

	if err := store.SetTheme(args[0]); err != nil {
		return err
	}
	printer().PrintNotice("success", "theme set to "+args[0])
	return nil
}
