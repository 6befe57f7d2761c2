package process

import (
	"fmt"
	"html"
	"log/slog"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// minReadableLength is the shortest extraction considered meaningful.
// Shorter results mean the extractor likely picked a fragment, so the
// full-page Markdown conversion takes over.
const minReadableLength = 200

// fallbackStep is one entry in an ordered fallback list.
type fallbackStep struct {
	name string
	run  func(raw string) (string, error)
}

// Readability extracts the main article from a page and renders it as a
// level-1 title heading followed by the article body in Markdown, links
// collapsed to their text and images dropped.
type Readability struct {
	converter *md.Converter
	markdown  *Markdown
	logger    *slog.Logger
}

// NewReadability creates the Readability processor.
func NewReadability(logger *slog.Logger) *Readability {
	if logger == nil {
		logger = slog.Default()
	}

	// Separate converter from the Markdown processor's: article output is
	// prose, so links collapse to their text and images vanish.
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, _ *goquery.Selection, _ *md.Options) *string {
			return md.String(content)
		},
	})
	converter.Remove("img")

	return &Readability{
		converter: converter,
		markdown:  NewMarkdown(logger),
		logger:    logger,
	}
}

// Process runs the fallback list in order and returns the first success.
// Extraction problems never surface; the Markdown step ends the list and
// cannot fail.
func (p *Readability) Process(raw string) (string, error) {
	var lastErr error
	for _, step := range p.steps() {
		out, err := step.run(raw)
		if err == nil {
			return out, nil
		}
		lastErr = err
		p.logger.Debug("Processor step failed, falling back",
			"step", step.name,
			"error", err)
	}
	return "", lastErr
}

// steps declares the fallback order: article extraction first, full-page
// Markdown second.
func (p *Readability) steps() []fallbackStep {
	return []fallbackStep{
		{name: "readability", run: p.extract},
		{name: "markdown", run: p.markdown.Process},
	}
}

// extract pulls the main article out of the page and converts it.
func (p *Readability) extract(raw string) (string, error) {
	article, err := readability.FromReader(strings.NewReader(raw), nil)
	if err != nil {
		return "", fmt.Errorf("extract article: %w", err)
	}

	combined := article.Content
	if article.Title != "" {
		combined = "<h1>" + html.EscapeString(article.Title) + "</h1>\n" + article.Content
	}

	markdown, err := p.converter.ConvertString(combined)
	if err != nil {
		return "", fmt.Errorf("convert article: %w", err)
	}

	if n := utf8.RuneCountInString(markdown); n < minReadableLength {
		return "", fmt.Errorf("article too short (%d chars)", n)
	}

	return markdown, nil
}
