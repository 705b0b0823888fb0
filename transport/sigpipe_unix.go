//go:build unix

package transport

import (
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

var maskSIGPIPEOnce sync.Once

// maskSIGPIPE ignores SIGPIPE process-wide on first dial. Go's runtime
// already suppresses SIGPIPE for descriptors it manages, but a process
// that embeds this driver alongside cgo or exec'd children is not
// guaranteed that protection, so we install the ignore handler
// explicitly, the way seabolt's communication-plain-posix.c blocks
// SIGPIPE around every send. unix.SIGPIPE (rather than syscall.SIGPIPE)
// keeps the signal number sourced from the same x/sys/unix package the
// rest of this file depends on.
func maskSIGPIPE() {
	maskSIGPIPEOnce.Do(func() {
		signal.Ignore(unix.SIGPIPE)
	})
}
