package protocol

// V1 implements the Bolt 1 message catalogue.
type V1 struct {
	legacy
}

// NewV1 returns a Bolt 1 Protocol driving wire.
func NewV1(wire Wire) *V1 {
	return &V1{legacy: newLegacy(wire, 1)}
}
