package boltconn

import "github.com/graphbolt/driver/boltcodes"

func protocolViolation(context string) error {
	return boltcodes.New(boltcodes.ProtocolViolation, "boltconn: "+context)
}
