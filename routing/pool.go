package routing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/graphbolt/driver/address"
	"github.com/graphbolt/driver/boltcodes"
	"github.com/graphbolt/driver/boltconn"
	"github.com/graphbolt/driver/boltlog"
	"github.com/graphbolt/driver/boltmetrics"
	"github.com/graphbolt/driver/pool"
	"github.com/graphbolt/driver/protocol"
	"github.com/graphbolt/driver/value"
)

const discoveryQuery = "CALL dbms.cluster.routing.getRoutingTable($context)"

// Options configures a Pool. Dial, UserAgent, and Seed have no usable
// zero value.
type Options struct {
	Seed               *address.Address
	Dial               boltconn.Dialer
	UserAgent          string
	AuthToken          map[string]*value.Value
	RoutingContext     map[string]*value.Value
	Resolver           address.Resolver
	PoolSize           int
	MaxLifetime        time.Duration
	MaxAcquisitionWait time.Duration
	Logger             *boltlog.Logger
}

// Pool is the RoutingPool: a refreshed Table plus a lazily populated
// map from server Address to its own pool.Pool (DirectPool).
type Pool struct {
	opts Options
	log  *boltlog.Logger

	mu      sync.RWMutex
	table   *Table
	servers map[string]*pool.Pool

	readersOffset uint64
	writersOffset uint64

	leaseMu sync.Mutex
	leases  map[*boltconn.Connection]*address.Address
}

// New returns a Pool seeded from opts.Seed; the table starts empty and
// expired, so the first Acquire triggers a Refresh.
func New(opts Options) *Pool {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 100
	}
	if opts.Resolver == nil {
		opts.Resolver = address.DefaultResolver
	}
	logger := opts.Logger
	if logger == nil {
		logger = boltlog.Discard
	}
	return &Pool{
		opts:    opts,
		log:     logger,
		table:   newTable(),
		servers: make(map[string]*pool.Pool),
		leases:  make(map[*boltconn.Connection]*address.Address),
	}
}

// Acquire selects a server by least-connected policy among the
// appropriate role set for mode, refreshing the routing table first if
// it is expired, per spec §4.8.
func (p *Pool) Acquire(ctx context.Context, mode protocol.AccessMode) (*boltconn.Connection, error) {
	p.mu.RLock()
	for p.table.expired(mode) {
		p.mu.RUnlock()
		if err := p.refreshIfStillExpired(ctx, mode); err != nil {
			return nil, err
		}
		p.mu.RLock()
	}

	servers := p.table.serverSet(mode)
	if len(servers) == 0 {
		p.mu.RUnlock()
		return nil, boltcodes.New(boltcodes.RoutingNoServersToSelect, "routing: no servers to select")
	}
	offset := p.nextOffset(mode)
	server := selectLeastConnected(servers, offset, p.connectionsInUseLocked)
	p.mu.RUnlock()

	serverPool, err := p.ensureServerPool(server)
	if err != nil {
		return nil, err
	}
	conn, err := serverPool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	p.leaseMu.Lock()
	p.leases[conn] = server
	p.leaseMu.Unlock()
	return conn, nil
}

// Release returns a previously acquired connection to its server's
// DirectPool.
func (p *Pool) Release(ctx context.Context, conn *boltconn.Connection) {
	p.leaseMu.Lock()
	server, ok := p.leases[conn]
	if ok {
		delete(p.leases, conn)
	}
	p.leaseMu.Unlock()
	if !ok {
		return
	}

	p.mu.RLock()
	serverPool, ok := p.servers[server.String()]
	p.mu.RUnlock()
	if ok {
		serverPool.Release(ctx, conn)
	}
}

func (p *Pool) nextOffset(mode protocol.AccessMode) int {
	if mode == protocol.ModeWrite {
		return int(atomic.AddUint64(&p.writersOffset, 1) - 1)
	}
	return int(atomic.AddUint64(&p.readersOffset, 1) - 1)
}

// connectionsInUseLocked reads p.servers directly, relying on the caller
// already holding p.mu (for read or write). sync.RWMutex forbids
// recursive RLock: a pending writer blocks new readers, so calling this
// from inside Acquire's held RLock must not re-lock p.mu itself.
func (p *Pool) connectionsInUseLocked(a *address.Address) int {
	sp, ok := p.servers[a.String()]
	if !ok {
		return 0
	}
	return sp.InUse()
}

// selectLeastConnected implements spec §4.8 step 3: start the scan at
// offset mod set size, and among all members pick the one with the
// fewest in-use connections.
func selectLeastConnected(servers []*address.Address, offset int, inUse func(*address.Address) int) *address.Address {
	start := offset % len(servers)
	best := servers[start]
	bestCount := inUse(best)
	for i := 1; i < len(servers); i++ {
		candidate := servers[(start+i)%len(servers)]
		if n := inUse(candidate); n < bestCount {
			best = candidate
			bestCount = n
		}
	}
	return best
}

// ensureServerPool looks up or lazily creates the DirectPool for
// server, promoting to the write lock only when creation is needed.
func (p *Pool) ensureServerPool(server *address.Address) (*pool.Pool, error) {
	p.mu.RLock()
	sp, ok := p.servers[server.String()]
	p.mu.RUnlock()
	if ok {
		return sp, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if sp, ok := p.servers[server.String()]; ok {
		return sp, nil
	}
	sp = pool.New(server, pool.Options{
		Dial:               p.opts.Dial,
		UserAgent:          p.opts.UserAgent,
		AuthToken:          p.opts.AuthToken,
		Size:               p.opts.PoolSize,
		MaxLifetime:        p.opts.MaxLifetime,
		MaxAcquisitionWait: p.opts.MaxAcquisitionWait,
		Logger:             p.log,
		OnError:            p.onConnectionError,
	})
	p.servers[server.String()] = sp
	return sp, nil
}

// onConnectionError implements spec §4.8's error handler: a failed
// connection forgets its server from every role set; a server-reported
// leader change forgets only the writer role; DatabaseUnavailable
// forgets the whole server.
func (p *Pool) onConnectionError(conn *boltconn.Connection, _ error) {
	server := conn.Address()
	if writerOnly(serverCode(conn.FailureData())) {
		p.ForgetWriter(server)
		return
	}
	p.ForgetServer(server)
}

// serverCode extracts the server-reported error code from a merged
// failure_data dictionary, or "" if none is present.
func serverCode(failure map[string]*value.Value) string {
	if failure == nil {
		return ""
	}
	codeVal, ok := failure["code"]
	if !ok || codeVal.Kind() != value.KindString {
		return ""
	}
	return codeVal.Str()
}

// writerOnly reports whether code is a leader-change error that should
// forget only the writer role rather than the whole server, per spec
// §4.8's error-handler rules.
func writerOnly(code string) bool {
	switch code {
	case "Neo.ClientError.Cluster.NotALeader", "Neo.ClientError.General.ForbiddenOnReadOnlyDatabase":
		return true
	default:
		return false
	}
}

// ForgetServer removes server from every role set and runs Cleanup.
func (p *Pool) ForgetServer(server *address.Address) {
	p.mu.Lock()
	p.table.Readers = removeAddress(p.table.Readers, server)
	p.table.Writers = removeAddress(p.table.Writers, server)
	p.table.Routers = removeAddress(p.table.Routers, server)
	p.mu.Unlock()
	p.cleanup()
}

// ForgetWriter removes server from only the writers set.
func (p *Pool) ForgetWriter(server *address.Address) {
	p.mu.Lock()
	p.table.Writers = removeAddress(p.table.Writers, server)
	p.mu.Unlock()
	p.cleanup()
}

// refreshIfStillExpired re-checks expiry under the write lock before
// refreshing, since another goroutine may have refreshed first (spec
// §4.8 step 2's "re-check" rule).
func (p *Pool) refreshIfStillExpired(ctx context.Context, mode protocol.AccessMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.table.expired(mode) {
		return nil
	}
	return p.refreshLocked(ctx)
}

// Refresh forces a routing table update regardless of expiry.
func (p *Pool) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshLocked(ctx)
}

func (p *Pool) refreshLocked(ctx context.Context) error {
	routers := p.candidateRoutersLocked()
	for _, router := range routers {
		table, err := p.discover(ctx, router)
		if err != nil {
			p.log.Warnf("routing", "refresh", "router %s failed: %v", router, err)
			continue
		}
		p.table = table
		boltmetrics.RoutingTableRefreshes.WithLabelValues("success").Inc()
		p.cleanupLocked()
		return nil
	}
	boltmetrics.RoutingTableRefreshes.WithLabelValues("failure").Inc()
	return boltcodes.New(boltcodes.RoutingUnableToRetrieveTable, "routing: unable to retrieve routing table from any router")
}

func (p *Pool) candidateRoutersLocked() []*address.Address {
	seen := make(map[string]bool)
	var out []*address.Address
	add := func(a *address.Address) {
		if !seen[a.String()] {
			seen[a.String()] = true
			out = append(out, a)
		}
	}
	for _, r := range p.table.Routers {
		add(r)
	}
	resolved := p.opts.Resolver(p.opts.Seed)
	if len(resolved) == 0 {
		resolved = []*address.Address{p.opts.Seed}
	}
	for _, r := range resolved {
		add(r)
	}
	return out
}

// discover opens a throwaway connection to router, runs the discovery
// query, and parses the single returned record into a Table.
func (p *Pool) discover(ctx context.Context, router *address.Address) (*Table, error) {
	conn, err := boltconn.Open(ctx, router, boltconn.OpenOptions{
		Dial:      p.opts.Dial,
		UserAgent: p.opts.UserAgent,
		AuthToken: p.opts.AuthToken,
		Logger:    p.log,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close(ctx) }()

	var contextParam value.Value
	contextParam.FormatDictionary(len(p.opts.RoutingContext))
	i := 0
	for k, v := range p.opts.RoutingContext {
		contextParam.DictionarySetKey(i, k)
		*contextParam.DictionaryValue(i) = *v
		i++
	}
	params := map[string]*value.Value{"context": &contextParam}

	runID, err := conn.Run(ctx, discoveryQuery, params, protocol.TxMeta{})
	if err != nil {
		return nil, err
	}
	if _, err := conn.FetchSummary(ctx, runID); err != nil {
		return nil, err
	}

	pullID, err := conn.PullAll(ctx)
	if err != nil {
		return nil, err
	}

	var record map[string]*value.Value
	for {
		outcome, err := conn.Fetch(ctx, pullID)
		if err != nil {
			return nil, err
		}
		if outcome.Kind == protocol.FetchSummaryReady {
			break
		}
		if record != nil {
			return nil, boltcodes.New(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: discovery query returned more than one record")
		}
		fields := conn.ResultFields()
		record = make(map[string]*value.Value, len(fields))
		for i, name := range fields {
			if i < len(outcome.Record) {
				record[name] = &outcome.Record[i]
			}
		}
	}
	if record == nil {
		return nil, boltcodes.New(boltcodes.RoutingUnexpectedDiscoveryResponse, "routing: discovery query returned no records")
	}
	return updateFrom(record)
}

func (p *Pool) cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanupLocked()
}

// cleanupLocked destroys any per-server pool whose server is absent
// from the current table and has no connections in use.
func (p *Pool) cleanupLocked() {
	active := p.table.activeServers()
	for key, sp := range p.servers {
		if active[key] {
			continue
		}
		if sp.InUse() > 0 {
			continue
		}
		sp.Destroy(context.Background())
		delete(p.servers, key)
	}
}

// Destroy tears down every per-server pool.
func (p *Pool) Destroy(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, sp := range p.servers {
		sp.Destroy(ctx)
		delete(p.servers, key)
	}
}
