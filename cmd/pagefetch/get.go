package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/pagefetch/content"
	"github.com/c360studio/pagefetch/fetch"
	"github.com/c360studio/pagefetch/process"
	"github.com/c360studio/pagefetch/safeurl"
)

// getOptions carries the flag values for one fetch.
type getOptions struct {
	fetchMethod     string
	processMethod   string
	timeoutSeconds  int
	jsWaitMS        int
	maxBytes        int64
	maxChars        int
	headers         []string
	followRedirects bool
}

func getCmd(configPath, logLevel *string) *cobra.Command {
	var opts getOptions

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Fetch a URL and print its processed content",
		Long: `Get fetches one URL through the same validated pipeline the server uses
and prints the processed content to stdout. Logs go to stderr, so the
output can be piped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// A zero js-wait is meaningful, so only an explicit flag
			// overrides the configured default.
			jsWaitSet := cmd.Flags().Changed("js-wait")
			return runGet(*configPath, *logLevel, args[0], opts, jsWaitSet)
		},
	}

	cmd.Flags().StringVar(&opts.fetchMethod, "fetch-method", "direct", "Fetch method (direct, browser)")
	cmd.Flags().StringVar(&opts.processMethod, "process-method", "raw", "Process method (raw, markdown, readability)")
	cmd.Flags().IntVar(&opts.timeoutSeconds, "timeout", 0, "Fetch timeout in seconds (default from config)")
	cmd.Flags().IntVar(&opts.jsWaitMS, "js-wait", 0, "Post-render wait in milliseconds (default from config)")
	cmd.Flags().Int64Var(&opts.maxBytes, "max-bytes", 0, "Raw body size cap in bytes (default from config)")
	cmd.Flags().IntVar(&opts.maxChars, "max-chars", 0, "Returned text length cap in characters (default from config)")
	cmd.Flags().StringArrayVar(&opts.headers, "header", nil, "Extra request header as key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.followRedirects, "follow-redirects", false, "Follow HTTP redirects")

	return cmd
}

func runGet(configPath, logLevel, rawURL string, opts getOptions, jsWaitSet bool) error {
	cfg, err := loadConfig(configPath, logLevel)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)

	fetchMethod := fetch.Method(opts.fetchMethod)
	if !fetchMethod.Valid() {
		return fmt.Errorf("unsupported fetch method %q", opts.fetchMethod)
	}
	processMethod := process.Method(opts.processMethod)
	if !processMethod.Valid() {
		return fmt.Errorf("unsupported process method %q", opts.processMethod)
	}

	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blocklist, err := buildBlocklist(cfg)
	if err != nil {
		return err
	}
	if err := safeurl.NewValidator(blocklist).Validate(ctx, rawURL); err != nil {
		return fmt.Errorf("unsafe URL: %w", err)
	}

	req := content.Request{
		URL:            rawURL,
		FetchMethod:    fetchMethod,
		ProcessMethod:  processMethod,
		TimeoutSeconds: int(cfg.Limits.DefaultTimeout / time.Second),
		JSWaitMS:       int(cfg.Limits.DefaultJSWait / time.Millisecond),
		Headers:        safeurl.SanitizeHeaders(headers),
		AllowRedirects: opts.followRedirects,
		MaxBytes:       cfg.Limits.MaxBytes,
		MaxChars:       cfg.Limits.MaxChars,
	}
	if opts.timeoutSeconds > 0 {
		req.TimeoutSeconds = opts.timeoutSeconds
	}
	if jsWaitSet {
		req.JSWaitMS = opts.jsWaitMS
	}
	if opts.maxBytes > 0 {
		req.MaxBytes = opts.maxBytes
	}
	if opts.maxChars > 0 {
		req.MaxChars = opts.maxChars
	}

	text, err := buildService(cfg, logger).Get(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", content.ErrorCode(err), err)
	}

	fmt.Println(text)
	return nil
}

// parseHeaders turns repeated key=value flags into a header map.
func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}
