// Package main provides the pagefetch binary entry point.
// Pagefetch retrieves web pages through an SSRF-guarded pipeline and
// converts them to text, either as a one-shot CLI fetch or as an API
// server speaking HTTP and optionally NATS.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/pagefetch/config"
	"github.com/c360studio/pagefetch/content"
	"github.com/c360studio/pagefetch/fetch"
	"github.com/c360studio/pagefetch/safeurl"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "pagefetch"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "pagefetch",
		Short: "Safe web content retrieval",
		Long: `Pagefetch retrieves web pages and converts them to text.

Every URL passes SSRF validation before any connection is made: internal
hostnames, private and link-local addresses, and blocklisted hosts are
rejected. Pages are fetched directly or through a headless browser and
processed to raw text, Markdown, or readability-extracted Markdown.

Run "pagefetch get" for a one-shot fetch or "pagefetch serve" for the
HTTP API server with an optional NATS request/reply facade.`,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(&configPath, &logLevel))
	cmd.AddCommand(getCmd(&configPath, &logLevel))

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// loadConfig resolves configuration: an explicit file wins outright,
// otherwise user and project configs layer over the defaults. A
// --log-level flag overrides whatever the files say.
func loadConfig(configPath, logLevel string) (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		c, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	} else {
		c, err := config.NewLoader(slog.Default()).Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}

	if logLevel != "" {
		cfg.Log.Level = strings.ToLower(logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogging installs a text handler on stderr so stdout stays free
// for command output.
func setupLogging(cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)
	return logger
}

// buildBlocklist assembles the extra-pattern blocklist from config:
// static patterns plus a one-time load of the pattern file when set.
// Watching the file for changes is the server's concern.
func buildBlocklist(cfg *config.Config) (*safeurl.Blocklist, error) {
	blocklist, err := safeurl.NewBlocklist(cfg.Safety.BlockedHosts...)
	if err != nil {
		return nil, fmt.Errorf("build blocklist: %w", err)
	}
	if cfg.Safety.BlocklistFile != "" {
		if err := blocklist.LoadFile(cfg.Safety.BlocklistFile); err != nil {
			return nil, fmt.Errorf("load blocklist file: %w", err)
		}
	}
	return blocklist, nil
}

// buildService wires both fetchers into a content service.
func buildService(cfg *config.Config, logger *slog.Logger) *content.Service {
	direct := fetch.NewDirect(cfg.Fetch.UserAgent, cfg.Fetch.AllowedContentTypes, logger)
	browser := fetch.NewBrowser(fetch.BrowserOptions{
		UserAgent:        cfg.Browser.UserAgent,
		Locale:           cfg.Browser.Locale,
		Timezone:         cfg.Browser.Timezone,
		ViewportWidth:    cfg.Browser.ViewportWidth,
		ViewportHeight:   cfg.Browser.ViewportHeight,
		ConsentSelectors: cfg.Browser.ConsentSelectors,
	}, logger)
	return content.NewService(direct, browser, logger)
}
