package safeurl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validation failures wrap one of these sentinel reasons so callers can
// classify them with errors.Is.
var (
	// ErrBlockedHostname means the hostname matched the blocked-name rules
	// and was rejected before any DNS lookup.
	ErrBlockedHostname = errors.New("blocked hostname")

	// ErrResolutionFailed means the hostname could not be resolved.
	ErrResolutionFailed = errors.New("hostname resolution failed")

	// ErrNoAddresses means resolution succeeded but returned no addresses.
	ErrNoAddresses = errors.New("hostname has no addresses")

	// ErrDangerousAddress means at least one resolved address is not
	// publicly routable.
	ErrDangerousAddress = errors.New("address not publicly routable")
)

// blockedHostnames are rejected outright, with no DNS lookup.
var blockedHostnames = map[string]struct{}{
	"localhost":             {},
	"localhost.localdomain": {},
	"local":                 {},
}

// reservedNets are ranges not caught by the net.IP classification methods.
// Parsed once at package initialization.
var reservedNets = []*net.IPNet{
	mustParseCIDR("0.0.0.0/8"),       // "this network"
	mustParseCIDR("100.64.0.0/10"),   // carrier-grade NAT
	mustParseCIDR("192.0.0.0/24"),    // IETF protocol assignments
	mustParseCIDR("192.0.2.0/24"),    // TEST-NET-1
	mustParseCIDR("198.18.0.0/15"),   // benchmarking
	mustParseCIDR("198.51.100.0/24"), // TEST-NET-2
	mustParseCIDR("203.0.113.0/24"),  // TEST-NET-3
	mustParseCIDR("240.0.0.0/4"),     // reserved, includes broadcast
	mustParseCIDR("2001:db8::/32"),   // IPv6 documentation
}

func mustParseCIDR(s string) *net.IPNet {
	_, block, err := net.ParseCIDR(s)
	if err != nil {
		panic("invalid CIDR " + s + ": " + err.Error())
	}
	return block
}

// resolver is the subset of net.Resolver the validator needs.
type resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Validator decides whether a URL is safe to fetch. Known local hostnames
// are blocked without resolving them; everything else is resolved and
// rejected if any returned address is not publicly routable.
//
// Validation and fetching are decoupled: the resolved addresses are not
// pinned for the later connection, so a DNS answer that changes between
// the two is not caught.
type Validator struct {
	resolver  resolver
	blocklist *Blocklist
}

// NewValidator returns a Validator using the default DNS resolver.
// blocklist may be nil when no extra patterns apply.
func NewValidator(blocklist *Blocklist) *Validator {
	return &Validator{
		resolver:  net.DefaultResolver,
		blocklist: blocklist,
	}
}

// Validate checks rawURL for SSRF safety. A nil return means every
// resolved address is publicly routable. Non-nil returns wrap one of the
// sentinel reasons above, except for malformed URLs which fail plainly.
func (v *Validator) Validate(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("URL %q has no hostname", rawURL)
	}

	if _, blocked := blockedHostnames[host]; blocked {
		return fmt.Errorf("%w: %q", ErrBlockedHostname, host)
	}
	if strings.HasSuffix(host, ".local") {
		return fmt.Errorf("%w: %q is a .local domain", ErrBlockedHostname, host)
	}
	if v.blocklist != nil && v.blocklist.Match(host) {
		return fmt.Errorf("%w: %q matches the blocklist", ErrBlockedHostname, host)
	}

	// IP literals skip resolution.
	if ip := net.ParseIP(host); ip != nil {
		if IsDangerousIP(ip) {
			return fmt.Errorf("%w: %s", ErrDangerousAddress, ip)
		}
		return nil
	}

	addrs, err := v.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrResolutionFailed, host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("%w: %q", ErrNoAddresses, host)
	}

	// Every address must pass, not just the one the dialer would pick.
	for _, addr := range addrs {
		if IsDangerousIP(addr.IP) {
			return fmt.Errorf("%w: %q resolves to %s", ErrDangerousAddress, host, addr.IP)
		}
	}

	return nil
}

// IsDangerousIP reports whether ip falls in a private, loopback,
// link-local, multicast, reserved, or unspecified range. It handles IPv4,
// IPv6, and IPv6-mapped IPv4 addresses.
func IsDangerousIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() {
		return true
	}

	// Re-check IPv6-mapped IPv4 addresses (::ffff:x.x.x.x) in IPv4 form.
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
			ip.IsMulticast() || ip.IsUnspecified() {
			return true
		}
	}

	for _, block := range reservedNets {
		if block.Contains(ip) {
			return true
		}
	}

	return false
}
