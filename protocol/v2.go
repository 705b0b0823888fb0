package protocol

// V2 implements the Bolt 2 message catalogue, identical in shape to
// Bolt 1 (see legacy.go).
type V2 struct {
	legacy
}

// NewV2 returns a Bolt 2 Protocol driving wire.
func NewV2(wire Wire) *V2 {
	return &V2{legacy: newLegacy(wire, 2)}
}
