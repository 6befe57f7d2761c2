package process

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown_Process_Basic(t *testing.T) {
	p := NewMarkdown(nil)

	html := `<html><body>
<h1>Getting Started</h1>
<p>This guide covers <strong>installation</strong> and <em>setup</em>.</p>
</body></html>`

	out, err := p.Process(html)
	require.NoError(t, err)

	assert.Contains(t, out, "# Getting Started")
	assert.Contains(t, out, "**installation**")
	assert.Contains(t, out, "_setup_")
}

func TestMarkdown_Process_PreservesLinks(t *testing.T) {
	p := NewMarkdown(nil)

	out, err := p.Process(`<p>See the <a href="https://example.com/docs">documentation</a>.</p>`)
	require.NoError(t, err)

	assert.Contains(t, out, "[documentation](https://example.com/docs)")
}

func TestMarkdown_Process_PreservesImages(t *testing.T) {
	p := NewMarkdown(nil)

	out, err := p.Process(`<p><img src="https://example.com/diagram.png" alt="architecture diagram"/></p>`)
	require.NoError(t, err)

	assert.Contains(t, out, "![architecture diagram](https://example.com/diagram.png)")
}

func TestMarkdown_Process_NoLineWrap(t *testing.T) {
	p := NewMarkdown(nil)

	sentence := strings.Repeat("the quick brown fox jumps over the lazy dog ", 10)
	sentence = strings.TrimSpace(sentence)

	out, err := p.Process("<p>" + sentence + "</p>")
	require.NoError(t, err)

	// The whole paragraph stays on one line regardless of its length.
	assert.Contains(t, out, sentence)
}

func TestMarkdown_Process_Unicode(t *testing.T) {
	p := NewMarkdown(nil)

	out, err := p.Process("<p>日本語のテキストと café and naïve</p>")
	require.NoError(t, err)

	assert.Contains(t, out, "日本語のテキストと café and naïve")
}

func TestMarkdown_Process_PlainText(t *testing.T) {
	p := NewMarkdown(nil)

	out, err := p.Process("just plain text, no markup")
	require.NoError(t, err)

	assert.Contains(t, out, "just plain text, no markup")
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "simple markup",
			in:   "<p>hello <b>world</b></p>",
			want: "hello world",
		},
		{
			name: "attributes",
			in:   `<div class="content"><span id="x">text</span></div>`,
			want: "text",
		},
		{
			name: "lone angle bracket survives",
			in:   "price < 100",
			want: "price < 100",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  <p>padded</p>  ",
			want: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripTags(tt.in))
		})
	}
}
