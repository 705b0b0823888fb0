package transport

import (
	"net"
	"time"

	"github.com/graphbolt/driver/boltcodes"
)

// plainTransport wraps a net.Conn (plaintext or already TLS-wrapped) and
// applies the configured recv/send deadlines on every call, the way
// mickamy-sql-tap's relay loops set deadlines around each read/write
// rather than once at dial time.
type plainTransport struct {
	conn net.Conn
	opts SocketOptions
}

func newPlainTransport(conn net.Conn, opts SocketOptions) *plainTransport {
	maskSIGPIPE()
	return &plainTransport{conn: conn, opts: opts}
}

func (t *plainTransport) Read(p []byte) (int, error) {
	if t.opts.RecvTimeout > 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(t.opts.RecvTimeout))
	}
	n, err := readFull(t.conn, p)
	if err != nil {
		return n, boltcodes.Wrap(classifyIOErr(err), "transport: read", err)
	}
	return n, nil
}

func (t *plainTransport) Write(p []byte) (int, error) {
	if t.opts.SendTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.opts.SendTimeout))
	}
	n, err := writeFull(t.conn, p)
	if err != nil {
		return n, boltcodes.Wrap(classifyIOErr(err), "transport: write", err)
	}
	return n, nil
}

func (t *plainTransport) SetDeadline(deadline time.Time) error {
	return t.conn.SetDeadline(deadline)
}

func (t *plainTransport) Close() error {
	return t.conn.Close()
}

func (t *plainTransport) LocalAddr() net.Addr  { return t.conn.LocalAddr() }
func (t *plainTransport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }

// readFull loops past short reads and returns on the first error (EINTR
// is retried inside Go's net package and never reaches it), mirroring the teacher's
// proxy/postgres readMessageRaw loop generalized to an arbitrary buffer.
func readFull(conn net.Conn, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := conn.Read(p[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeFull loops past short writes, the partial-progress-aware send
// spec §7 requires.
func writeFull(conn net.Conn, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := conn.Write(p[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func classifyIOErr(err error) boltcodes.Code {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return boltcodes.TimedOut
	}
	return boltcodes.ConnectionReset
}
