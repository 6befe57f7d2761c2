package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// browserUserAgent matches the Chrome build the rendered fetcher emulates.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// hideWebdriverScript runs before any page script so sites probing
// navigator.webdriver see a regular browser.
const hideWebdriverScript = "Object.defineProperty(navigator, 'webdriver', {get: () => undefined});"

const (
	// consentClickTimeout bounds each consent selector attempt.
	consentClickTimeout = 1 * time.Second

	// networkIdleWindow is how long the network must stay quiet before
	// the page counts as idle.
	networkIdleWindow = 500 * time.Millisecond

	// networkIdleTimeout caps the idle wait. Pages that poll or stream
	// never go idle; hitting the cap is not an error.
	networkIdleTimeout = 10 * time.Second
)

// DefaultConsentSelectors is the ordered list of consent-dialog buttons
// the rendered fetcher tries to click, Japanese consent texts first, then
// a common explicit id. XPath selectors start with "//".
var DefaultConsentSelectors = []string{
	`//*[contains(text(), "同意して続行")]`,
	`//*[contains(text(), "同意して進む")]`,
	`//*[contains(text(), "同意する")]`,
	`//button[contains(., "同意")]`,
	`#consent-accept-button`,
}

// Browser fetches pages through a headless Chrome instance. Every call
// launches a fresh isolated browser, so no cookies, cache, or listeners
// leak between fetches, and tears it down on all paths.
type Browser struct {
	userAgent        string
	locale           string
	timezone         string
	viewportWidth    int
	viewportHeight   int
	consentSelectors []string
	logger           *slog.Logger
}

// BrowserOptions configures the rendered fetcher. Zero values select the
// defaults.
type BrowserOptions struct {
	UserAgent        string
	Locale           string
	Timezone         string
	ViewportWidth    int
	ViewportHeight   int
	ConsentSelectors []string
}

// NewBrowser builds the rendered fetcher.
func NewBrowser(opts BrowserOptions, logger *slog.Logger) *Browser {
	if opts.UserAgent == "" {
		opts.UserAgent = browserUserAgent
	}
	if opts.Locale == "" {
		opts.Locale = "ja-JP"
	}
	if opts.Timezone == "" {
		opts.Timezone = "Asia/Tokyo"
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = 1280
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = 800
	}
	if len(opts.ConsentSelectors) == 0 {
		opts.ConsentSelectors = DefaultConsentSelectors
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Browser{
		userAgent:        opts.UserAgent,
		locale:           opts.Locale,
		timezone:         opts.Timezone,
		viewportWidth:    opts.ViewportWidth,
		viewportHeight:   opts.ViewportHeight,
		consentSelectors: append([]string(nil), opts.ConsentSelectors...),
		logger:           logger,
	}
}

// Fetch renders the page and returns the serialized DOM. Navigation is
// bounded by req.Timeout; the consent scan, network-idle wait, and JS wait
// have their own fixed bounds.
func (b *Browser) Fetch(ctx context.Context, req Request) (*Result, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(b.userAgent),
		chromedp.WindowSize(b.viewportWidth, b.viewportHeight),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	// An empty Run starts the browser; this is the step that fails when
	// Chrome is absent.
	if err := chromedp.Run(tabCtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderingUnavailable, err)
	}

	prep := []chromedp.Action{
		network.Enable(),
		emulation.SetLocaleOverride().WithLocale(b.locale),
		emulation.SetTimezoneOverride(b.timezone),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverScript).Do(ctx)
			return err
		}),
	}
	if len(req.Headers) > 0 {
		headers := make(network.Headers, len(req.Headers))
		for key, value := range req.Headers {
			headers[key] = value
		}
		prep = append(prep, network.SetExtraHTTPHeaders(headers))
	}
	if err := chromedp.Run(tabCtx, prep...); err != nil {
		return nil, fmt.Errorf("prepare page: %w", err)
	}

	// Wait only until the DOM is parsed; resource loading is covered by
	// the network-idle wait below.
	navCtx, cancelNav := context.WithTimeout(tabCtx, req.Timeout)
	defer cancelNav()

	err := chromedp.Run(navCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, errText, _, err := page.Navigate(req.URL).Do(ctx)
			if err != nil {
				return err
			}
			if errText != "" {
				return fmt.Errorf("navigation failed: %s", errText)
			}
			return nil
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("navigate %s: %w", req.URL, err)
	}

	b.dismissConsent(tabCtx)
	waitNetworkIdle(tabCtx, networkIdleTimeout)

	if req.JSWait > 0 {
		if err := chromedp.Run(tabCtx, chromedp.Sleep(req.JSWait)); err != nil {
			return nil, fmt.Errorf("js wait: %w", err)
		}
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("capture page: %w", err)
	}

	b.logger.Debug("Rendered page in browser",
		"url", req.URL,
		"chars", len(html))

	return &Result{RawContent: html, DeclaredContentType: "text/html"}, nil
}

// dismissConsent clicks the first consent selector that matches, in order.
// Every failure here, including nothing matching, is swallowed; consent
// dialogs are a nuisance, not a requirement.
func (b *Browser) dismissConsent(ctx context.Context) {
	for _, sel := range b.consentSelectors {
		attempt, cancel := context.WithTimeout(ctx, consentClickTimeout)
		err := chromedp.Run(attempt, chromedp.Click(sel, queryOptionFor(sel), chromedp.NodeVisible))
		cancel()
		if err == nil {
			b.logger.Debug("Dismissed consent dialog", "selector", sel)
			return
		}
	}
}

// queryOptionFor picks the chromedp query language for a selector string.
func queryOptionFor(sel string) chromedp.QueryOption {
	if strings.HasPrefix(sel, "//") || strings.HasPrefix(sel, "(//") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// waitNetworkIdle blocks until no network activity has been seen for
// networkIdleWindow, the limit elapses, or ctx is done. Running into the
// limit is deliberately not an error.
func waitNetworkIdle(ctx context.Context, limit time.Duration) {
	idleCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	activity := make(chan struct{}, 1)
	chromedp.ListenTarget(idleCtx, func(ev interface{}) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent,
			*network.EventDataReceived,
			*network.EventLoadingFinished,
			*network.EventLoadingFailed:
			select {
			case activity <- struct{}{}:
			default:
			}
		}
	})

	quiet := time.NewTimer(networkIdleWindow)
	defer quiet.Stop()

	for {
		select {
		case <-idleCtx.Done():
			return
		case <-activity:
			if !quiet.Stop() {
				select {
				case <-quiet.C:
				default:
				}
			}
			quiet.Reset(networkIdleWindow)
		case <-quiet.C:
			return
		}
	}
}
