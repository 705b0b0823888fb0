package protocol

import (
	"encoding/binary"
	"io"

	"github.com/graphbolt/driver/boltcodes"
)

// handshakeMagic is the 4-byte preamble every Bolt connection opens
// with, immediately after TCP/TLS establishment.
var handshakeMagic = [4]byte{0x60, 0x60, 0xB0, 0x17}

// DefaultVersionPreferences is the version offer sent by this driver,
// in descending preference; unused slots are zero.
var DefaultVersionPreferences = [4]int{3, 2, 1, 0}

// Handshake performs the 20-byte client hello / 4-byte server reply
// exchange over rw (the freshly dialed transport, before any chunking
// framer is attached) and returns the negotiated version, or
// protocol_unsupported if the server replies with version 0 ("none
// agreed").
func Handshake(rw io.ReadWriter, preferences [4]int) (int, error) {
	var out [20]byte
	copy(out[:4], handshakeMagic[:])
	for i, v := range preferences {
		binary.BigEndian.PutUint32(out[4+i*4:8+i*4], uint32(v))
	}
	if _, err := rw.Write(out[:]); err != nil {
		return 0, boltcodes.Wrap(boltcodes.ConnectionReset, "protocol: send handshake", err)
	}

	var reply [4]byte
	if _, err := io.ReadFull(rw, reply[:]); err != nil {
		return 0, boltcodes.Wrap(boltcodes.ConnectionReset, "protocol: read handshake reply", err)
	}
	version := int(binary.BigEndian.Uint32(reply[:]))
	if version == 0 {
		return 0, boltcodes.New(boltcodes.ProtocolUnsupported, "protocol: server rejected all offered versions")
	}
	return version, nil
}

// NewProtocol constructs the Protocol implementation matching a
// negotiated version.
func NewProtocol(version int, wire Wire) (Protocol, error) {
	switch version {
	case 1:
		return NewV1(wire), nil
	case 2:
		return NewV2(wire), nil
	case 3:
		return NewV3(wire), nil
	default:
		return nil, boltcodes.New(boltcodes.ProtocolUnsupported, "protocol: unsupported negotiated version")
	}
}
