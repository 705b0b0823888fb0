package boltconn

import (
	"context"
	"time"

	"github.com/graphbolt/driver/buffer"
	"github.com/graphbolt/driver/chunking"
	"github.com/graphbolt/driver/packstream"
	"github.com/graphbolt/driver/protocol"
	"github.com/graphbolt/driver/transport"
	"github.com/graphbolt/driver/value"
)

// wire implements protocol.Wire on top of a transport.Transport, a pair
// of staging buffer.Buffers, and a version-gated PackStream codec. It is
// the concrete realization of the data flow:
// application -> Protocol -> packstream -> chunking -> Transport.
type wire struct {
	transport transport.Transport
	tx        *buffer.Buffer
	rx        *buffer.Buffer
	enc       *packstream.Encoder
	dec       *packstream.Decoder
	chunkR    *chunking.Reader

	bytesSent     func(int)
	bytesReceived func(int)
}

func newWire(t transport.Transport, policy packstream.TagPolicy, maxMessageSize int) *wire {
	w := &wire{
		transport:     t,
		tx:            buffer.New(512),
		rx:            buffer.New(512),
		enc:           packstream.NewEncoder(policy),
		dec:           packstream.NewDecoder(policy),
		bytesSent:     func(int) {},
		bytesReceived: func(int) {},
	}
	w.chunkR = chunking.NewReader(t).WithMaxMessageSize(maxMessageSize)
	return w
}

func (w *wire) applyDeadline(ctx context.Context) {
	if dl, ok := ctx.Deadline(); ok {
		_ = w.transport.SetDeadline(dl)
		return
	}
	_ = w.transport.SetDeadline(time.Time{})
}

func (w *wire) SendStructure(ctx context.Context, tag int8, fields []value.Value) error {
	w.applyDeadline(ctx)
	var msg value.Value
	msg.FormatStructure(tag, len(fields))
	for i := range fields {
		*msg.StructureField(i) = fields[i]
	}

	w.tx.Reset()
	if err := w.enc.Encode(w.tx, &msg); err != nil {
		return err
	}
	payload := w.tx.Bytes()
	if err := chunking.Write(w.transport, payload); err != nil {
		return err
	}
	w.bytesSent(len(payload))
	return nil
}

func (w *wire) ReceiveStructure(ctx context.Context) (int8, []value.Value, error) {
	w.applyDeadline(ctx)
	payload, err := w.chunkR.ReadMessage()
	if err != nil {
		return 0, nil, err
	}
	w.bytesReceived(len(payload))

	w.rx.Reset()
	w.rx.Append(payload)
	v, err := w.dec.Decode(w.rx)
	if err != nil {
		return 0, nil, err
	}
	if v.Kind() != value.KindStructure {
		return 0, nil, protocolViolation("received a non-structure top-level message")
	}
	fields := make([]value.Value, v.Size())
	for i := 0; i < v.Size(); i++ {
		fields[i] = *v.StructureField(i)
	}
	return v.StructureTag(), fields, nil
}

var _ protocol.Wire = (*wire)(nil)
