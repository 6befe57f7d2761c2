package safeurl

import "strings"

// forbiddenHeaders are never forwarded; they belong to the transport.
var forbiddenHeaders = map[string]struct{}{
	"host":              {},
	"content-length":    {},
	"transfer-encoding": {},
	"connection":        {},
}

// SanitizeHeaders filters caller-supplied headers for forwarding.
// Forbidden headers are dropped case-insensitively and surviving keys are
// lowercased; values pass through untouched. Returns nil when nothing
// survives, so callers can treat the result as "no custom headers".
func SanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}

	out := make(map[string]string, len(headers))
	for key, value := range headers {
		lowKey := strings.ToLower(key)
		if _, forbidden := forbiddenHeaders[lowKey]; forbidden {
			continue
		}
		out[lowKey] = value
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
