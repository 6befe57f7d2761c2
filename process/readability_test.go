package process

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// articlePage builds a page with enough body text for the extractor to
// find, wrapped in the boilerplate it should discard.
func articlePage() string {
	para := "Container scheduling decides which node runs each workload. " +
		"The scheduler weighs resource requests, affinity rules, and current " +
		"utilization before binding a pod to a node, and it keeps retrying " +
		"until a placement succeeds or the pod is marked unschedulable. "

	var b strings.Builder
	b.WriteString("<html><head><title>Scheduling Deep Dive</title></head><body>")
	b.WriteString(`<nav><ul><li>Home</li><li>Products</li><li>Pricing</li></ul></nav>`)
	b.WriteString("<article>")
	for i := 0; i < 4; i++ {
		b.WriteString("<p>")
		b.WriteString(strings.Repeat(para, 2))
		b.WriteString(`Details live in the <a href="https://example.com/ref">reference manual</a>.`)
		b.WriteString("</p>")
	}
	b.WriteString(`<p><img src="https://example.com/fig1.png" alt="scheduler flow"/></p>`)
	b.WriteString("</article>")
	b.WriteString("<footer>Copyright Example Corp</footer>")
	b.WriteString("</body></html>")
	return b.String()
}

func TestReadability_Process_ExtractsArticle(t *testing.T) {
	p := NewReadability(nil)

	out, err := p.Process(articlePage())
	require.NoError(t, err)

	assert.Contains(t, out, "# Scheduling Deep Dive")
	assert.Contains(t, out, "Container scheduling decides which node runs each workload.")
}

func TestReadability_Process_SuppressesLinksAndImages(t *testing.T) {
	p := NewReadability(nil)

	out, err := p.Process(articlePage())
	require.NoError(t, err)

	// Link text stays, link targets and images go.
	assert.Contains(t, out, "reference manual")
	assert.NotContains(t, out, "](https://example.com/ref)")
	assert.NotContains(t, out, "![")
	assert.NotContains(t, out, "fig1.png")
}

func TestReadability_Process_ShortArticleFallsBackToMarkdown(t *testing.T) {
	page := `<html><head><title>Stub</title></head><body>` +
		`<article><p>Almost nothing here.</p></article>` +
		`</body></html>`

	rd := NewReadability(nil)
	mk := NewMarkdown(nil)

	got, err := rd.Process(page)
	require.NoError(t, err)

	want, err := mk.Process(page)
	require.NoError(t, err)

	// Too little extracted text means the output is exactly what the
	// Markdown processor produces, not a trimmed-down article.
	assert.Equal(t, want, got)
}

func TestReadability_Process_NonHTMLFallsBackToMarkdown(t *testing.T) {
	input := "a few words, no markup"

	rd := NewReadability(nil)
	mk := NewMarkdown(nil)

	got, err := rd.Process(input)
	require.NoError(t, err)

	want, err := mk.Process(input)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestReadability_Steps_Order(t *testing.T) {
	p := NewReadability(nil)

	steps := p.steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "readability", steps[0].name)
	assert.Equal(t, "markdown", steps[1].name)
}
