package gatekeeper

import (
	"context"
	"net/netip"
	"testing"
)

func TestClassifyAddr(t *testing.T) {
	t.Parallel()

	cases := []struct {
		addr string
		want AddressClass
	}{
		{"93.184.216.34", ClassPublic},
		{"8.8.8.8", ClassPublic},
		{"2606:4700::6810:84e5", ClassPublic},
		{"127.0.0.1", ClassLoopback},
		{"127.255.255.254", ClassLoopback},
		{"::1", ClassLoopback},
		{"0.0.0.0", ClassUnspecified},
		{"::", ClassUnspecified},
		{"10.0.0.1", ClassPrivateIPv4},
		{"10.255.255.255", ClassPrivateIPv4},
		{"172.16.0.1", ClassPrivateIPv4},
		{"172.31.255.255", ClassPrivateIPv4},
		{"192.168.0.1", ClassPrivateIPv4},
		{"fd00::1", ClassPrivateIPv6},
		{"169.254.1.1", ClassLinkLocal},
		{"fe80::1", ClassLinkLocal},
		{"::ffff:127.0.0.1", ClassLoopback},
		{"::ffff:10.0.0.1", ClassPrivateIPv4},
		{"::ffff:8.8.8.8", ClassPublic},
		// 172.32.0.0 sits just outside 172.16.0.0/12.
		{"172.32.0.1", ClassPublic},
	}

	for _, tc := range cases {
		addr := netip.MustParseAddr(tc.addr)
		if got := classifyAddr(addr); got != tc.want {
			t.Errorf("classifyAddr(%s) = %q, want %q", tc.addr, got, tc.want)
		}
	}
}

func TestClassifyLiteralIP(t *testing.T) {
	t.Parallel()

	// Literal IPs never hit the resolver.
	c := NewClassifier(&fakeResolver{})

	class, addrs := c.Classify(context.Background(), "127.0.0.1")
	if class != ClassLoopback {
		t.Errorf("class = %q, want %q", class, ClassLoopback)
	}
	if len(addrs) != 1 || addrs[0].String() != "127.0.0.1" {
		t.Errorf("addrs = %v, want [127.0.0.1]", addrs)
	}
}

func TestClassifyHostname(t *testing.T) {
	t.Parallel()

	c := NewClassifier(&fakeResolver{records: map[string][]netip.Addr{
		"public.example.com": {netip.MustParseAddr("93.184.216.34"), netip.MustParseAddr("2606:2800:220:1::1")},
		"tainted.example.com": {
			netip.MustParseAddr("93.184.216.34"),
			netip.MustParseAddr("10.0.0.5"),
		},
	}})

	class, addrs := c.Classify(context.Background(), "public.example.com")
	if class != ClassPublic {
		t.Errorf("public name: class = %q, want %q", class, ClassPublic)
	}
	if len(addrs) != 2 {
		t.Errorf("public name: got %d addrs, want 2", len(addrs))
	}

	class, _ = c.Classify(context.Background(), "tainted.example.com")
	if class != ClassPrivateIPv4 {
		t.Errorf("tainted name: class = %q, want %q", class, ClassPrivateIPv4)
	}

	class, addrs = c.Classify(context.Background(), "missing.example.com")
	if class != ClassUnresolvable {
		t.Errorf("missing name: class = %q, want %q", class, ClassUnresolvable)
	}
	if addrs != nil {
		t.Errorf("missing name: addrs = %v, want nil", addrs)
	}
}
