// Package pool implements DirectPool: a fixed-capacity array of
// connection slots to a single server address, with lifetime eviction
// and a condition-variable acquisition wait, mirroring spec §4.7.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/graphbolt/driver/address"
	"github.com/graphbolt/driver/boltcodes"
	"github.com/graphbolt/driver/boltconn"
	"github.com/graphbolt/driver/boltlog"
	"github.com/graphbolt/driver/boltmetrics"
	"github.com/graphbolt/driver/value"
)

// Options configures a Pool. Dial and UserAgent have no usable zero
// value; the rest default as noted.
type Options struct {
	Dial               boltconn.Dialer
	UserAgent          string
	AuthToken          map[string]*value.Value
	Size               int           // default 100
	MaxLifetime        time.Duration // 0 = unbounded
	MaxAcquisitionWait time.Duration // 0 = fail fast
	Logger             *boltlog.Logger
	// OnError is forwarded to every connection this pool opens, letting
	// a wrapping routing.Pool learn of Failed/Defunct transitions to
	// forget a server without DirectPool knowing about routing at all.
	OnError boltconn.OnErrorFunc
}

// Pool is a fixed-size array of connection slots to one server,
// guarded by a mutex and a sync.Cond for acquisition waiters.
type Pool struct {
	addr *address.Address
	opts Options
	log  *boltlog.Logger

	mu    sync.Mutex
	cond  *sync.Cond
	slots []*boltconn.Connection
}

// New returns a Pool for addr. The pool opens connections lazily, on
// first Acquire of each slot.
func New(addr *address.Address, opts Options) *Pool {
	if opts.Size <= 0 {
		opts.Size = 100
	}
	logger := opts.Logger
	if logger == nil {
		logger = boltlog.Discard
	}
	p := &Pool{
		addr:  addr,
		opts:  opts,
		log:   logger,
		slots: make([]*boltconn.Connection, opts.Size),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// InUse reports how many slots currently hold a leased connection;
// used by the routing layer's least-connected server selection.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.slots {
		if c != nil && c.Agent() != "" {
			n++
		}
	}
	return n
}

// Acquire returns a Ready connection from the pool, opening or
// recovering a slot as needed, per spec §4.7's per-slot state table.
func (p *Pool) Acquire(ctx context.Context) (*boltconn.Connection, error) {
	deadline := time.Time{}
	if p.opts.MaxAcquisitionWait > 0 {
		deadline = time.Now().Add(p.opts.MaxAcquisitionWait)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if idx, ok := p.findFreeSlotLocked(); ok {
			conn, err := p.readySlotLocked(ctx, idx)
			if err != nil {
				return nil, err
			}
			conn.SetAgent("leased")
			boltmetrics.PoolInUse.WithLabelValues(p.addr.String()).Inc()
			boltmetrics.PoolIdle.WithLabelValues(p.addr.String()).Dec()
			return conn, nil
		}

		if p.opts.MaxAcquisitionWait <= 0 {
			return nil, boltcodes.New(boltcodes.PoolFull, "pool: no free slot and acquisition wait disabled")
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, boltcodes.New(boltcodes.PoolAcquisitionTimedOut, "pool: acquisition timed out")
		}
		if err := ctx.Err(); err != nil {
			return nil, boltcodes.Wrap(boltcodes.PoolAcquisitionTimedOut, "pool: acquisition canceled", err)
		}

		boltmetrics.PoolAcquisitionsWaited.WithLabelValues(p.addr.String()).Inc()
		p.waitLocked(deadline)
	}
}

// waitLocked blocks on the condition variable, bounded by deadline (the
// zero Time means no bound beyond the caller's own retry loop). Go's
// sync.Cond has no built-in timed wait, so a timer goroutine broadcasts
// on expiry, mirroring the underlying pthread_cond_timedwait this
// replaces.
func (p *Pool) waitLocked(deadline time.Time) {
	if deadline.IsZero() {
		p.cond.Wait()
		return
	}
	timer := time.AfterFunc(time.Until(deadline), p.cond.Broadcast)
	defer timer.Stop()
	p.cond.Wait()
}

// findFreeSlotLocked returns the index of a slot with no leased agent,
// preferring the first idle slot and, failing that, the first never-
// opened slot.
func (p *Pool) findFreeSlotLocked() (int, bool) {
	for i, c := range p.slots {
		if c != nil && c.Agent() == "" {
			return i, true
		}
	}
	for i, c := range p.slots {
		if c == nil {
			return i, true
		}
	}
	return 0, false
}

// readySlotLocked brings slot idx to Ready, opening, recovering, or
// lifetime-evicting the existing connection as its state demands.
func (p *Pool) readySlotLocked(ctx context.Context, idx int) (*boltconn.Connection, error) {
	conn := p.slots[idx]
	if conn == nil {
		return p.openSlotLocked(ctx, idx)
	}

	switch conn.State() {
	case boltconn.Ready:
		if p.opts.MaxLifetime > 0 && time.Since(conn.OpenedAt()) > p.opts.MaxLifetime {
			p.log.Infof("pool", "lifetime evict", "%s slot=%d", p.addr, idx)
			_ = conn.Close(ctx)
			boltmetrics.ConnectionsClosed.WithLabelValues(p.addr.String(), "lifetime").Inc()
			return p.openSlotLocked(ctx, idx)
		}
		return conn, nil
	case boltconn.Failed:
		if err := conn.Reset(ctx); err != nil {
			return p.openSlotLocked(ctx, idx)
		}
		return conn, nil
	default: // Disconnected, Defunct, Connected (shouldn't linger here)
		return p.openSlotLocked(ctx, idx)
	}
}

func (p *Pool) openSlotLocked(ctx context.Context, idx int) (*boltconn.Connection, error) {
	started := time.Now()
	conn, err := boltconn.Open(ctx, p.addr, boltconn.OpenOptions{
		Dial:      p.opts.Dial,
		UserAgent: p.opts.UserAgent,
		AuthToken: p.opts.AuthToken,
		Logger:    p.log,
		OnError:   p.onConnectionError,
	})
	if err != nil {
		return nil, err
	}
	boltmetrics.ConnectionOpenSeconds.WithLabelValues(p.addr.String()).Observe(time.Since(started).Seconds())
	p.slots[idx] = conn
	return conn, nil
}

func (p *Pool) onConnectionError(conn *boltconn.Connection, err error) {
	if p.opts.OnError != nil {
		p.opts.OnError(conn, err)
	}
}

// Release returns conn to the pool: RESET recovers it to Ready; a
// failed RESET closes the slot instead. Either way, waiters are woken.
func (p *Pool) Release(ctx context.Context, conn *boltconn.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn.SetAgent("")
	boltmetrics.PoolInUse.WithLabelValues(p.addr.String()).Dec()

	switch conn.State() {
	case boltconn.Ready, boltconn.Failed:
		if err := conn.Reset(ctx); err != nil {
			idx := p.indexOfLocked(conn)
			if idx >= 0 {
				_ = conn.Close(ctx)
				p.slots[idx] = nil
			}
		} else {
			boltmetrics.PoolIdle.WithLabelValues(p.addr.String()).Inc()
		}
	default:
		idx := p.indexOfLocked(conn)
		if idx >= 0 {
			_ = conn.Close(ctx)
			p.slots[idx] = nil
		}
	}
	p.cond.Broadcast()
}

func (p *Pool) indexOfLocked(conn *boltconn.Connection) int {
	for i, c := range p.slots {
		if c == conn {
			return i
		}
	}
	return -1
}

// Destroy closes every open slot and releases the pool's connections.
func (p *Pool) Destroy(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.slots {
		if c != nil {
			_ = c.Close(ctx)
			boltmetrics.ConnectionsClosed.WithLabelValues(p.addr.String(), "destroy").Inc()
			p.slots[i] = nil
		}
	}
	p.cond.Broadcast()
}
