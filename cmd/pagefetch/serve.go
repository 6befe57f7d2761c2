package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/c360studio/pagefetch/natsapi"
	"github.com/c360studio/pagefetch/safeurl"
	"github.com/c360studio/pagefetch/server"
)

func serveCmd(configPath, logLevel *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pagefetch API server",
		Long: `Serve runs the HTTP API server. When a NATS URL is configured it also
answers content requests over NATS request/reply on the configured
subject. A configured blocklist file is watched and reloaded on change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath, *logLevel, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

func runServe(configPath, logLevel, addr string) error {
	cfg, err := loadConfig(configPath, logLevel)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	logger := setupLogging(cfg)

	printBanner()

	blocklist, err := buildBlocklist(cfg)
	if err != nil {
		return err
	}
	validator := safeurl.NewValidator(blocklist)
	service := buildService(cfg, logger)

	handler := server.NewHandler(service, validator, cfg.Limits, logger)
	srv := server.New(cfg.Server, handler, logger)

	// Setup signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hot-reload the blocklist file while serving.
	if cfg.Safety.BlocklistFile != "" {
		watcher, err := safeurl.NewWatcher(cfg.Safety.BlocklistFile, blocklist, logger)
		if err != nil {
			return fmt.Errorf("watch blocklist file: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start blocklist watcher: %w", err)
		}
		defer watcher.Stop()
	}

	// The NATS facade is optional and runs only when a URL is configured.
	if cfg.NATS.URL != "" {
		logger.Info("Connecting to NATS", "url", cfg.NATS.URL)
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name(appName),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer nc.Close()

		executor := server.NewContentExecutor(service, validator, cfg.Limits)
		facade := natsapi.New(nc, cfg.NATS.Subject, executor, logger)
		if err := facade.Start(ctx); err != nil {
			return err
		}
		defer facade.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("Pagefetch ready", "version", Version, "addr", cfg.Server.Addr)

	// Block until shutdown signal or listener failure
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error stopping server", "error", err)
	}

	logger.Info("Pagefetch shutdown complete")
	return nil
}

func printBanner() {
	fmt.Println("╔═══════════════════════════════════════════════╗")
	fmt.Println("║             Pagefetch v" + Version + "                  ║")
	fmt.Println("║        Safe Web Content Retrieval             ║")
	fmt.Println("╚═══════════════════════════════════════════════╝")
}
