// Package address resolves and represents Bolt server endpoints.
package address

import (
	"context"
	"fmt"
	"net"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/graphbolt/driver/boltcodes"
)

// Address is a Bolt server endpoint: an unresolved host/service pair
// plus its most recently resolved socket addresses.
type Address struct {
	Host    string
	Service string

	mu       sync.RWMutex
	resolved []*net.TCPAddr
}

// New returns an unresolved Address for host:service.
func New(host, service string) *Address {
	return &Address{Host: host, Service: service}
}

// Parse splits a "host:port" string into an Address.
func Parse(hostPort string) (*Address, error) {
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return nil, boltcodes.Wrap(boltcodes.AddressNotResolved, "address: parse", err)
	}
	return New(host, port), nil
}

// String renders "host:service".
func (a *Address) String() string {
	return net.JoinHostPort(a.Host, a.Service)
}

// Equal compares two addresses by host/service, not resolution state.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Host == other.Host && a.Service == other.Service
}

// Resolved returns the most recently resolved socket addresses, if any.
func (a *Address) Resolved() []*net.TCPAddr {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resolved
}

// group coalesces concurrent resolutions of the same host:service pair
// into a single net.Resolver call, per spec §3's "single mutex
// serializes resolution" generalized (distinct addresses resolve
// concurrently; only identical keys are coalesced).
var group singleflight.Group

// Resolve performs (or waits on an in-flight) DNS resolution for a and
// caches the result.
func (a *Address) Resolve(ctx context.Context) ([]*net.TCPAddr, error) {
	key := a.String()
	v, err, _ := group.Do(key, func() (any, error) {
		ips, resolveErr := net.DefaultResolver.LookupIPAddr(ctx, a.Host)
		if resolveErr != nil {
			return nil, boltcodes.Wrap(boltcodes.NoValidAddress, fmt.Sprintf("address: resolve %s", a.Host), resolveErr)
		}
		port, resolveErr := net.DefaultResolver.LookupPort(ctx, "tcp", a.Service)
		if resolveErr != nil {
			return nil, boltcodes.Wrap(boltcodes.NoValidAddress, fmt.Sprintf("address: resolve service %s", a.Service), resolveErr)
		}
		out := make([]*net.TCPAddr, 0, len(ips))
		for _, ip := range ips {
			out = append(out, &net.TCPAddr{IP: ip.IP, Port: port, Zone: ip.Zone})
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	resolved := v.([]*net.TCPAddr)
	a.mu.Lock()
	a.resolved = resolved
	a.mu.Unlock()
	return resolved, nil
}

// Resolver produces the candidate addresses to try for a seed address,
// per the connector's address_resolver option; it defaults to returning
// the seed unchanged.
type Resolver func(seed *Address) []*Address

// DefaultResolver returns seed unchanged.
func DefaultResolver(seed *Address) []*Address { return []*Address{seed} }
