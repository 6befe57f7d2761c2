package fetch

import (
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// decodeText turns raw response bytes into a string using, in order, the
// declared charset, a statistically detected charset, and UTF-8.
// Undecodable byte sequences become replacement runes rather than errors.
func decodeText(raw []byte, contentType string) string {
	for _, enc := range []encoding.Encoding{declaredEncoding(contentType), detectedEncoding(raw)} {
		if enc == nil {
			continue
		}
		if decoded, err := enc.NewDecoder().Bytes(raw); err == nil {
			return string(decoded)
		}
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}

// declaredEncoding resolves the charset parameter of a Content-Type
// header. Returns nil when the parameter is absent or names an unknown
// encoding.
func declaredEncoding(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	name := params["charset"]
	if name == "" {
		return nil
	}
	enc, _ := htmlcharset.Lookup(name)
	return enc
}

// detectedEncoding guesses the charset from the bytes themselves.
func detectedEncoding(raw []byte) encoding.Encoding {
	if len(raw) == 0 {
		return nil
	}
	result, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil || result == nil {
		return nil
	}
	enc, _ := htmlcharset.Lookup(result.Charset)
	return enc
}
