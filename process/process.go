// Package process transforms fetched page text into its caller-facing
// form. Three processors exist: Raw passes content through, Markdown
// converts HTML to Markdown keeping links and images, and Readability
// extracts the main article first and suppresses links and images.
//
// Readability is built as an ordered fallback list: article extraction,
// then the full-page Markdown conversion. Extraction failures and
// too-short articles both fall through; the caller never sees them.
package process

// Method selects how fetched content is transformed.
type Method string

// MethodRaw, MethodMarkdown, and MethodReadability enumerate the process
// methods.
const (
	// MethodRaw returns the fetched text unchanged.
	MethodRaw Method = "raw"

	// MethodMarkdown converts HTML to Markdown.
	MethodMarkdown Method = "markdown"

	// MethodReadability extracts the main article before converting.
	MethodReadability Method = "readability"
)

// Valid reports whether m is a known process method.
func (m Method) Valid() bool {
	return m == MethodRaw || m == MethodMarkdown || m == MethodReadability
}

// Processor transforms fetched text.
type Processor interface {
	Process(raw string) (string, error)
}

// Raw passes fetched content through unchanged.
type Raw struct{}

// Process returns raw as-is.
func (Raw) Process(raw string) (string, error) {
	return raw, nil
}
