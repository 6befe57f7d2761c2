// Package safeurl guards outbound fetches against SSRF.
//
// # URL Validation
//
// Validator.Validate rejects URLs before any request is made:
//
//   - Hostnames localhost, localhost.localdomain, and local, and any
//     hostname under .local, are blocked without a DNS lookup.
//   - Extra hostname glob patterns from a Blocklist are blocked the same
//     way.
//   - Everything else is resolved, and every returned address must be
//     publicly routable: private (RFC 1918, CGNAT, IPv6 unique local),
//     loopback, link-local, multicast, reserved, and unspecified ranges
//     are all rejected.
//
// The resolved addresses are not pinned for the later connection; a DNS
// answer that changes between validation and fetch (rebinding) is a known,
// documented gap.
//
// # Header Sanitizing
//
// SanitizeHeaders drops host, content-length, transfer-encoding, and
// connection case-insensitively and lowercases the surviving keys. An
// empty result is returned as nil, meaning "no custom headers".
//
// # Blocklist Reload
//
// Watcher reloads a Blocklist file on change with debouncing, so blocked
// patterns can be updated without a restart.
package safeurl
