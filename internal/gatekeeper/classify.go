package gatekeeper

import (
	"context"
	"net"
	"net/netip"
)

// AddressClass is the result of classifying a host or literal IP against the
// reserved address ranges that must never be fetched.
type AddressClass string

const (
	ClassPublic       AddressClass = "public"
	ClassLoopback     AddressClass = "loopback"
	ClassPrivateIPv4  AddressClass = "private_ipv4"
	ClassPrivateIPv6  AddressClass = "private_ipv6"
	ClassLinkLocal    AddressClass = "link_local"
	ClassUnspecified  AddressClass = "unspecified"
	ClassUnresolvable AddressClass = "unresolvable"
)

// Resolver is the DNS seam used by the classifier. *net.Resolver satisfies
// it; tests inject a fake.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Classifier decides whether a host sits inside a reserved, private or
// loopback range. Hostnames are resolved to every A/AAAA record and blocked
// if any single address is non-public, which defends against DNS entries
// mixing a public and a private address.
type Classifier struct {
	resolver Resolver
}

// NewClassifier creates a Classifier. A nil resolver falls back to
// net.DefaultResolver.
func NewClassifier(resolver Resolver) *Classifier {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Classifier{resolver: resolver}
}

// Classify returns the address class for host along with the resolved
// addresses. For a literal IP the returned slice holds exactly that address.
// Resolution failures yield ClassUnresolvable and a nil slice.
func (c *Classifier) Classify(ctx context.Context, host string) (AddressClass, []netip.Addr) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return classifyAddr(addr), []netip.Addr{addr}
	}

	addrs, err := c.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil || len(addrs) == 0 {
		return ClassUnresolvable, nil
	}

	// One private record taints the whole name.
	for _, addr := range addrs {
		if class := classifyAddr(addr); class != ClassPublic {
			return class, addrs
		}
	}
	return ClassPublic, addrs
}

// classifyAddr checks a single address against the reserved ranges:
// 127.0.0.0/8, ::1, 0.0.0.0, 10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16,
// 169.254.0.0/16, fe80::/10 and fc00::/7. IPv4-mapped IPv6 addresses are
// unmapped first so ::ffff:127.0.0.1 cannot slip through.
func classifyAddr(addr netip.Addr) AddressClass {
	addr = addr.Unmap()

	switch {
	case addr.IsUnspecified():
		return ClassUnspecified
	case addr.IsLoopback():
		return ClassLoopback
	case addr.IsLinkLocalUnicast(), addr.IsLinkLocalMulticast():
		return ClassLinkLocal
	case addr.IsPrivate():
		if addr.Is4() {
			return ClassPrivateIPv4
		}
		return ClassPrivateIPv6
	}
	return ClassPublic
}
