package packstream

// TagPolicy tells the codec which structure tags are legal to encode
// (Writable) or decode (Readable) for the protocol version currently in
// effect. Implemented by each protocol.Protocol (V1, V2, V3) so the structure tag set stays
// version-gated without the codec knowing about message semantics.
type TagPolicy interface {
	Writable(tag int8) bool
	Readable(tag int8) bool
}

// AllowAll accepts every tag; useful for tests that only exercise the
// codec's shape, not a particular protocol version's message set.
type AllowAll struct{}

func (AllowAll) Writable(int8) bool { return true }
func (AllowAll) Readable(int8) bool { return true }
