package bus

import "testing"

func TestProxyEqual(t *testing.T) {
	conn := &Connection{}
	p1 := &Proxy{connection: conn, name: "counter"}
	p2 := &Proxy{connection: conn, name: "counter"}
	p3 := &Proxy{connection: conn, name: "other"}

	if !p1.Equal(p2) {
		t.Fatal("expected proxies with the same connection and name to be equal")
	}
	if p1.Equal(p3) {
		t.Fatal("expected proxies with different names to be unequal")
	}
	if p1.Equal(nil) {
		t.Fatal("expected a non-nil proxy to be unequal to nil")
	}
}

func TestProxyNameAndConnectionBypassForwarding(t *testing.T) {
	conn := &Connection{}
	p := &Proxy{connection: conn, name: "counter"}
	if p.Name() != "counter" {
		t.Fatalf("Name() = %q, want counter", p.Name())
	}
	if p.Connection() != conn {
		t.Fatal("Connection() did not return the bound connection")
	}
}

func TestProxyString(t *testing.T) {
	p := &Proxy{name: "counter"}
	if got := p.String(); got != "proxy counter" {
		t.Fatalf("String() = %q, want %q", got, "proxy counter")
	}
}
