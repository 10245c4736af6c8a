package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/outreach-agent/internal/api"
	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/fetch"
	"github.com/jonathan/outreach-agent/internal/resume"
	"github.com/jonathan/outreach-agent/internal/state"
)

var generateCmd = &cobra.Command{
	Use:   "generate <cover_letter|email|resume>",
	Short: "Generate application content from a job posting",
	Long: `Generate a cover letter, outreach email, or customized résumé from a job
posting. The posting comes from --description-file or --url; with --url the
backend fetches the posting itself, unless --local-fetch extracts it on this
machine first (useful behind VPNs or for boards the backend cannot reach).`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var (
	generateDescriptionFile string
	generateURL             string
	generateLocalFetch      bool
	generateUseBrowser      bool
	generatePersonName      string
	generatePersonEmail     string
	generateOutput          string
)

func init() {
	generateCmd.Flags().StringVar(&generateDescriptionFile, "description-file", "", "File containing the job description text")
	generateCmd.Flags().StringVar(&generateURL, "url", "", "Job posting URL")
	generateCmd.Flags().BoolVar(&generateLocalFetch, "local-fetch", false, "Extract the posting locally instead of on the backend")
	generateCmd.Flags().BoolVar(&generateUseBrowser, "use-browser", false, "Allow headless browser rendering for local extraction")
	generateCmd.Flags().StringVar(&generatePersonName, "person-name", "", "Recipient name for email generation")
	generateCmd.Flags().StringVar(&generatePersonEmail, "person-email", "", "Recipient email for email generation")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Write the generated content to a file instead of stdout")
	rootCmd.AddCommand(generateCmd)
}

// useBrowserSetting resolves the headless-render preference: an explicit flag
// wins, otherwise the config file's use_browser applies.
func useBrowserSetting(cmd *cobra.Command, cfg *config.Config) bool {
	if cmd.Flags().Changed("use-browser") {
		return generateUseBrowser
	}
	return cfg.UseBrowser
}

// postingInput resolves the job posting text or URL from the flags.
func postingInput(cmd *cobra.Command, cfg *config.Config) (description, jobURL string, err error) {
	switch {
	case generateDescriptionFile != "":
		raw, err := os.ReadFile(generateDescriptionFile)
		if err != nil {
			return "", "", fmt.Errorf("read description file: %w", err)
		}
		return string(raw), "", nil
	case generateURL != "" && generateLocalFetch:
		posting, err := fetch.ExtractPosting(cmd.Context(), generateURL, fetch.PostingOptions{
			UseBrowser: useBrowserSetting(cmd, cfg),
			Verbose:    cfg.Verbose,
		})
		if err != nil {
			return "", "", fmt.Errorf("extract posting locally: %w", err)
		}
		return posting.Text, "", nil
	case generateURL != "":
		return "", generateURL, nil
	default:
		return "", "", fmt.Errorf("either --description-file or --url is required")
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	kind := args[0]
	switch kind {
	case api.GenerateCoverLetter, api.GenerateEmail, api.GenerateResume:
	default:
		return fmt.Errorf("unknown content kind %q (expected cover_letter, email or resume)", kind)
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

	description, jobURL, err := postingInput(cmd, cfg)
	if err != nil {
		return err
	}

	p := printer()
	res, err := client.Generate(cmd.Context(), api.GenerateRequest{
		Kind:           kind,
		JobDescription: description,
		JobURL:         jobURL,
		PersonName:     generatePersonName,
		PersonEmail:    generatePersonEmail,
	})
	if err != nil {
		return err
	}

	content := res.Content
	if content == "" && res.TaskID != "" {
		// Resume generation runs as a background refinement task.
		p.PrintNotice("info", "generation queued, waiting for it to finish")
		poller := resume.NewPoller(client, 0)
		result, err := poller.Wait(cmd.Context(), res.TaskID)
		if err != nil {
			return err
		}
		content = string(result.Data)
	}

	recordGeneration(store, kind, description, jobURL)

	if generateOutput != "" {
		if err := os.WriteFile(generateOutput, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		p.PrintNotice("success", "wrote "+generateOutput)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), content)
	return nil
}

// recordGeneration appends a history entry so past generations can be listed.
func recordGeneration(store *state.Store, kind, description, jobURL string) {
	title := jobURL
	if title == "" {
		title = firstLine(description)
	}
	if title == "" {
		title = "untitled"
	}
	_ = store.UpsertConversation(state.Conversation{
		ID:        uuid.NewString(),
		Title:     kind + ": " + title,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return strings.TrimSpace(s)
}
