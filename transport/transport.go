// Package transport abstracts the blocking byte stream a Connection
// speaks over: plaintext TCP or TLS-wrapped TCP. Real OS socket/TLS
// adapters are out of this module's explicit core scope (spec §1); the
// default implementations here exist because a usable driver needs one,
// and are deliberately thin wrappers so swapping in a mock for tests is
// trivial.
package transport

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/graphbolt/driver/boltcodes"
)

// Transport is an abstract blocking byte stream. Implementations must be
// safe for one reader and one writer goroutine to use concurrently (the
// protocol layer never reads and writes from more than one goroutine
// each at a time).
type Transport interface {
	// Read fills p fully or returns an error; behaves like io.ReadFull
	// against the underlying stream.
	Read(p []byte) (int, error)
	// Write writes p fully or returns an error, looping on short writes.
	Write(p []byte) (int, error)
	// SetDeadline arms a read/write deadline, as net.Conn.SetDeadline.
	SetDeadline(t time.Time) error
	// Close terminates the stream.
	Close() error
	// LocalAddr / RemoteAddr mirror net.Conn for logging.
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// SocketOptions configures the default Dial-based transports, mirroring
// spec §6's socket_options connector configuration.
type SocketOptions struct {
	ConnectTimeout time.Duration
	RecvTimeout    time.Duration
	SendTimeout    time.Duration
	KeepAlive      bool
}

// TrustConfig configures TLS peer verification, mirroring spec §6's
// trust connector configuration.
type TrustConfig struct {
	SkipVerify         bool
	SkipVerifyHostname bool
	Certs              []byte
}

// DialPlain opens a plaintext TCP transport to addr.
func DialPlain(ctx context.Context, addr string, opts SocketOptions) (Transport, error) {
	d := net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: -1}
	if opts.KeepAlive {
		d.KeepAlive = 30 * time.Second
	}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, boltcodes.Wrap(classifyDialErr(err), "transport: dial", err)
	}
	return newPlainTransport(conn, opts), nil
}

// DialTLS opens a TCP transport and performs a TLS handshake on top,
// honoring TrustConfig's verification relaxations.
func DialTLS(ctx context.Context, addr string, opts SocketOptions, trust TrustConfig) (Transport, error) {
	base, err := DialPlain(ctx, addr, opts)
	if err != nil {
		return nil, err
	}
	cfg, err := buildTLSConfig(addr, trust)
	if err != nil {
		_ = base.Close()
		return nil, boltcodes.Wrap(boltcodes.TLSError, "transport: build tls config", err)
	}
	tlsConn := tls.Client(base.(*plainTransport).conn, cfg)
	if dl := deadlineFrom(opts.ConnectTimeout); !dl.IsZero() {
		_ = tlsConn.SetDeadline(dl)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = tlsConn.Close()
		return nil, boltcodes.Wrap(boltcodes.TLSError, "transport: tls handshake", err)
	}
	_ = tlsConn.SetDeadline(time.Time{})
	return newPlainTransport(tlsConn, opts), nil
}

func buildTLSConfig(addr string, trust TrustConfig) (*tls.Config, error) {
	cfg := &tls.Config{InsecureSkipVerify: trust.SkipVerify} //nolint:gosec // explicit opt-in per connector config
	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		cfg.ServerName = host
	}
	if trust.SkipVerifyHostname && !trust.SkipVerify {
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = verifyCertsOnly(trust.Certs)
	}
	if len(trust.Certs) > 0 {
		pool, err := newCertPool(trust.Certs)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

func deadlineFrom(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

func classifyDialErr(err error) boltcodes.Code {
	var netErr net.Error
	if ok := asNetError(err, &netErr); ok && netErr.Timeout() {
		return boltcodes.TimedOut
	}
	if opErr, ok := err.(*net.OpError); ok && opErr.Op == "dial" {
		return boltcodes.ConnectionRefused
	}
	return boltcodes.NetworkUnreachable
}

func asNetError(err error, target *net.Error) bool {
	ne, ok := err.(net.Error)
	if ok {
		*target = ne
	}
	return ok
}
