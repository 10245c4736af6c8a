package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/outreach-agent/internal/api"
	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/observability"
	"github.com/jonathan/outreach-agent/internal/state"
)

var (
	flagConfig     string
	flagBackendURL string
	flagToken      string
	flagTimeout    int
	flagStateDB    string
	flagVerbose    bool
	flagStrict     bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to JSON config file")
	pf.StringVar(&flagBackendURL, "backend-url", "", "Backend base URL (overrides OUTREACH_BACKEND_URL)")
	pf.StringVar(&flagToken, "token", "", "Session token (overrides OUTREACH_TOKEN)")
	pf.IntVar(&flagTimeout, "timeout", 0, "Request timeout in seconds")
	pf.StringVar(&flagStateDB, "state-db", "", "Path to the local state database")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Print detailed debug information")
	pf.BoolVar(&flagStrict, "strict-schemas", false, "Validate backend payloads against JSON Schemas")
}

// loadSettings resolves the effective configuration: flags override
// environment variables, which override the config file, which overrides
// defaults.
func loadSettings() (*config.Config, error) {
	cfg := &config.Config{}
	if flagConfig != "" {
		loaded, err := config.LoadConfig(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if env := os.Getenv("OUTREACH_BACKEND_URL"); env != "" {
		cfg.BackendURL = env
	}
	if env := os.Getenv("OUTREACH_TOKEN"); env != "" {
		cfg.Token = env
	}
	if flagBackendURL != "" {
		cfg.BackendURL = flagBackendURL
	}
	if flagToken != "" {
		cfg.Token = flagToken
	}
	if flagTimeout > 0 {
		cfg.TimeoutSec = flagTimeout
	}
	if flagStateDB != "" {
		cfg.StateDB = flagStateDB
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	if flagStrict {
		cfg.StrictSchemas = true
	}

	merged := cfg.MergeWithDefaults(config.Config{
		BackendURL: config.DefaultBackendURL,
		Port:       config.DefaultPort,
		TimeoutSec: config.DefaultTimeoutSec,
		StateDB:    config.DefaultStateDB(),
		Theme:      "system",
	})
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// openStore opens the local state database, creating its directory on first
// use.
func openStore(cfg *config.Config) (*state.Store, error) {
	if dir := filepath.Dir(cfg.StateDB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.Open(cfg.StateDB)
}

// newClient builds the API client. When no token was supplied by flag, env,
// or config, the session persisted in the local store is used.
func newClient(cfg *config.Config, store *state.Store) (*api.Client, error) {
	token := cfg.Token
	if token == "" && store != nil {
		token = store.Session().Token
	}
	return api.New(api.Config{
		BaseURL:       cfg.BackendURL,
		Token:         token,
		Timeout:       cfg.Timeout(),
		StrictSchemas: cfg.StrictSchemas,
	})
}

func printer() *observability.Printer {
	return observability.NewPrinter(os.Stdout)
}
