// Package domains checks whether a customer's requested domain is still
// free to register.
package domains

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"
)

const DefaultTimeout = 5 * time.Second

// Resolver is the subset of *net.Resolver the checker needs.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

type Checker struct {
	Resolver Resolver
	Timeout  time.Duration
}

func NewChecker() *Checker {
	return &Checker{Resolver: net.DefaultResolver, Timeout: DefaultTimeout}
}

// Available reports a domain as free when it does not resolve. Any lookup
// failure, including a timeout, counts as free.
func (c *Checker) Available(ctx context.Context, domain string) bool {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addrs, err := c.Resolver.LookupHost(ctx, domain)
	if err != nil {
		slog.DebugContext(ctx, "domain lookup failed", "domain", domain, "error", err)
		return true
	}
	return len(addrs) == 0
}

// FullDomain joins a user-entered name with a plan suffix such as ".com".
func FullDomain(name, suffix string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, ".")
	return name + suffix
}
