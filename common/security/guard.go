// Package security guards outbound HTTP calls made by the http-request
// node: scheme restrictions, a host denylist and SSRF protection against
// private address space.
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Guard validates outbound URLs before the http-request node dials them.
type Guard struct {
	// AllowPrivateHosts disables private/loopback IP blocking. Meant for
	// development against local services.
	AllowPrivateHosts bool
	// BlockedHosts are denied by exact or suffix match (".internal" blocks
	// "db.internal").
	BlockedHosts []string
}

// NewGuard creates a guard with the given policy.
func NewGuard(allowPrivateHosts bool, blockedHosts []string) *Guard {
	return &Guard{
		AllowPrivateHosts: allowPrivateHosts,
		BlockedHosts:      blockedHosts,
	}
}

// CheckURL validates scheme and host. It resolves nothing: literal IPs are
// checked directly, hostnames only against the denylist plus the well-known
// local names. DNS-level pinning is out of scope for the node.
func (g *Guard) CheckURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if err := g.checkScheme(parsed.Scheme); err != nil {
		return err
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("URL has no host: %s", raw)
	}
	return g.CheckHost(host)
}

func (g *Guard) checkScheme(scheme string) error {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return nil
	case "":
		return fmt.Errorf("URL scheme is required")
	default:
		return fmt.Errorf("URL scheme %q is not allowed, use http or https", scheme)
	}
}

// CheckHost applies the denylist and, unless private hosts are allowed,
// blocks localhost names and private/loopback/link-local IP literals.
func (g *Guard) CheckHost(host string) error {
	lower := strings.ToLower(host)

	for _, blocked := range g.BlockedHosts {
		b := strings.ToLower(blocked)
		if lower == b || (strings.HasPrefix(b, ".") && strings.HasSuffix(lower, b)) {
			return fmt.Errorf("host %s is blocked by policy", host)
		}
	}

	if g.AllowPrivateHosts {
		return nil
	}

	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return fmt.Errorf("host %s is blocked (local address)", host)
	}

	if ip := net.ParseIP(lower); ip != nil {
		return checkIP(ip)
	}

	return nil
}

// checkIP rejects address ranges that point back into the deployment:
// loopback, RFC-1918/ULA, link-local (cloud metadata services live there),
// multicast and the unspecified address.
func checkIP(ip net.IP) error {
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("IP %s is blocked (loopback address)", ip)
	case ip.IsPrivate():
		return fmt.Errorf("IP %s is blocked (private network)", ip)
	case ip.IsLinkLocalUnicast():
		return fmt.Errorf("IP %s is blocked (link-local address)", ip)
	case ip.IsMulticast():
		return fmt.Errorf("IP %s is blocked (multicast address)", ip)
	case ip.IsUnspecified():
		return fmt.Errorf("IP %s is blocked (unspecified address)", ip)
	}
	return nil
}
