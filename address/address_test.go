package address_test

import (
	"context"
	"testing"

	"github.com/graphbolt/driver/address"
)

func TestParseAndString(t *testing.T) {
	t.Parallel()
	a, err := address.Parse("example.test:7687")
	if err != nil {
		t.Fatal(err)
	}
	if a.Host != "example.test" || a.Service != "7687" {
		t.Fatalf("got host=%q service=%q", a.Host, a.Service)
	}
	if a.String() != "example.test:7687" {
		t.Fatalf("got %q", a.String())
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()
	a := address.New("a", "7687")
	b := address.New("a", "7687")
	c := address.New("b", "7687")
	if !a.Equal(b) {
		t.Fatal("expected equal addresses to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected different hosts to compare unequal")
	}
}

func TestResolveLocalhost(t *testing.T) {
	t.Parallel()
	a := address.New("localhost", "7687")
	resolved, err := a.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved) == 0 {
		t.Fatal("expected at least one resolved address for localhost")
	}
	if len(a.Resolved()) != len(resolved) {
		t.Fatal("expected cached resolution to match")
	}
}
