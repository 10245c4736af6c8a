package main

import (
	"fmt"
	"net/url"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/outreach-agent/internal/proxy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web gateway",
	Long:  "Serve the built web client and forward API and auth traffic to the backend, keeping event streams unbuffered.",
	RunE:  runServe,
}

var (
	servePort      int
	serveStaticDir string
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default from config)")
	serveCmd.Flags().StringVar(&serveStaticDir, "static-dir", "", "Directory with the built web client")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	if serveStaticDir != "" {
		cfg.StaticDir = serveStaticDir
	}

	backend, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}

	logCfg := zap.NewProductionConfig()
	if cfg.Verbose {
		logCfg = zap.NewDevelopmentConfig()
	}
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gateway, err := proxy.New(proxy.Options{
		BackendURL: backend,
		StaticDir:  cfg.StaticDir,
		Addr:       fmt.Sprintf(":%d", cfg.Port),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return gateway.Run(ctx)
}
