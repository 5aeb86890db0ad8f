package models

import (
	"context"
	"net/netip"
	"net/url"
	"time"
)

// Target represents one candidate URL in the scan queue.
// Host and IP are resolved from the URL on construction; IP is best-effort
// and carries the zero netip.Addr when hostname resolution fails, which is
// a normal state rather than an error.
type Target struct {
	URL       string
	Source    string
	Scanned   bool
	Host      string
	IP        netip.Addr
	StartTime time.Time
	EndTime   time.Time
}

// Resolver performs hostname lookups for targets. It matches the
// LookupNetIP method of net.Resolver so tests can substitute their own.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// NewTarget parses the URL, records the hostname and attempts a best-effort
// resolution of its IP address. The start time is set at construction,
// which is claim time for targets returned by the store.
func NewTarget(rawURL string, resolver Resolver) *Target {
	target := &Target{
		URL:       rawURL,
		StartTime: time.Now(),
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return target
	}
	target.Host = parsed.Hostname()

	if resolver == nil || target.Host == "" {
		return target
	}

	addrs, err := resolver.LookupNetIP(context.Background(), "ip", target.Host)
	if err != nil || len(addrs) == 0 {
		// Resolution failure only degrades the IP-based blocklist test.
		return target
	}
	target.IP = addrs[0].Unmap()

	return target
}

// HasIP reports whether hostname resolution produced an address.
func (t *Target) HasIP() bool {
	return t.IP.IsValid()
}
