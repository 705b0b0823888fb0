// Package routing implements the RoutingPool: a periodically refreshed
// cluster RoutingTable plus a map from server Address to DirectPool,
// selecting servers by least-connected policy and reacting to
// server-reported leader-change/unavailability errors, per spec §4.8.
package routing

import (
	"time"

	"github.com/graphbolt/driver/address"
	"github.com/graphbolt/driver/boltcodes"
	"github.com/graphbolt/driver/protocol"
	"github.com/graphbolt/driver/value"
)

// Table is the discovered cluster topology: reader, writer, and router
// address sets plus one expiry shared by both access modes; expired adds
// a per-mode check that the role set for that mode is non-empty.
type Table struct {
	Readers []*address.Address
	Writers []*address.Address
	Routers []*address.Address
	Expires time.Time
}

func newTable() *Table {
	return &Table{}
}

// expired reports whether the table needs a refresh before servicing an
// acquisition of the given mode: usable for mode M iff now is before
// Expires, the routers set is non-empty, and the role set for M is
// non-empty.
func (t *Table) expired(mode protocol.AccessMode) bool {
	if t.Expires.IsZero() || time.Now().After(t.Expires) {
		return true
	}
	if len(t.Routers) == 0 {
		return true
	}
	if mode == protocol.ModeWrite && len(t.Writers) == 0 {
		return true
	}
	if mode == protocol.ModeRead && len(t.Readers) == 0 {
		return true
	}
	return false
}

// updateFrom parses a discovery record (the single row returned by
// `CALL dbms.cluster.routing.getRoutingTable($context)`) into a new
// Table, per spec §4.8's validation rules.
func updateFrom(record map[string]*value.Value) (*Table, error) {
	ttlVal, ok := record["ttl"]
	if !ok || ttlVal.Kind() != value.KindInteger {
		return nil, boltcodes.New(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: discovery response missing integer ttl")
	}
	serversVal, ok := record["servers"]
	if !ok || serversVal.Kind() != value.KindList {
		return nil, boltcodes.New(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: discovery response missing servers list")
	}

	out := newTable()
	out.Expires = time.Now().Add(time.Duration(ttlVal.Int()) * time.Second)

	for i := 0; i < serversVal.Size(); i++ {
		entry := serversVal.ListAt(i)
		if entry.Kind() != value.KindDictionary {
			return nil, boltcodes.New(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: server entry is not a dictionary")
		}
		roleVal, ok := entry.DictionaryLookup("role")
		if !ok || roleVal.Kind() != value.KindString {
			return nil, boltcodes.New(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: server entry missing role")
		}
		addrsVal, ok := entry.DictionaryLookup("addresses")
		if !ok || addrsVal.Kind() != value.KindList {
			return nil, boltcodes.New(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: server entry missing addresses")
		}
		addrs := make([]*address.Address, 0, addrsVal.Size())
		for j := 0; j < addrsVal.Size(); j++ {
			hostPort := addrsVal.ListAt(j)
			if hostPort.Kind() != value.KindString {
				return nil, boltcodes.New(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: server address is not a string")
			}
			a, err := address.Parse(hostPort.Str())
			if err != nil {
				return nil, boltcodes.Wrap(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: parse server address", err)
			}
			addrs = append(addrs, a)
		}

		switch roleVal.Str() {
		case "ROUTE":
			out.Routers = append(out.Routers, addrs...)
		case "READ":
			out.Readers = append(out.Readers, addrs...)
		case "WRITE":
			out.Writers = append(out.Writers, addrs...)
		default:
			return nil, boltcodes.New(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: server entry has unrecognized role")
		}
	}

	if len(out.Readers) == 0 {
		return nil, boltcodes.New(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: discovery response has no readers")
	}
	return out, nil
}

func (t *Table) serverSet(mode protocol.AccessMode) []*address.Address {
	if mode == protocol.ModeWrite {
		return t.Writers
	}
	return t.Readers
}

// activeServers is the union of all three role sets, used by Cleanup to
// decide which per-server pools are still referenced by the table.
func (t *Table) activeServers() map[string]bool {
	active := make(map[string]bool)
	for _, sets := range [][]*address.Address{t.Readers, t.Writers, t.Routers} {
		for _, a := range sets {
			active[a.String()] = true
		}
	}
	return active
}

func removeAddress(list []*address.Address, target *address.Address) []*address.Address {
	out := list[:0]
	for _, a := range list {
		if !a.Equal(target) {
			out = append(out, a)
		}
	}
	return out
}
