package process

import (
	"log/slog"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// tagRe matches anything tag-shaped, for the crude strip fallback.
// Pre-compiled to avoid runtime compilation.
var tagRe = regexp.MustCompile(`<[^<]+?>`)

// Markdown converts HTML to Markdown, preserving links and images, with
// no output line wrap.
type Markdown struct {
	converter *md.Converter
	logger    *slog.Logger
}

// NewMarkdown creates the Markdown processor.
func NewMarkdown(logger *slog.Logger) *Markdown {
	if logger == nil {
		logger = slog.Default()
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Markdown{
		converter: converter,
		logger:    logger,
	}
}

// Process converts raw HTML to Markdown. A conversion failure falls back
// to stripping tags, which cannot fail, so the error is always nil.
func (p *Markdown) Process(raw string) (string, error) {
	markdown, err := p.converter.ConvertString(raw)
	if err != nil {
		p.logger.Warn("Markdown conversion failed, stripping tags", "error", err)
		return stripTags(raw), nil
	}
	return markdown, nil
}

// stripTags removes tag-shaped spans and trims the result.
func stripTags(raw string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(raw, ""))
}
