package protocol_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/graphbolt/driver/protocol"
	"github.com/graphbolt/driver/value"
)

type sentMessage struct {
	tag    int8
	fields []value.Value
}

type fakeWire struct {
	sent    []sentMessage
	inbound []sentMessage
	pos     int
}

func (w *fakeWire) SendStructure(_ context.Context, tag int8, fields []value.Value) error {
	w.sent = append(w.sent, sentMessage{tag: tag, fields: fields})
	return nil
}

func (w *fakeWire) ReceiveStructure(_ context.Context) (int8, []value.Value, error) {
	if w.pos >= len(w.inbound) {
		return 0, nil, context.DeadlineExceeded
	}
	msg := w.inbound[w.pos]
	w.pos++
	return msg.tag, msg.fields, nil
}

func successMeta(kv ...any) value.Value {
	var d value.Value
	n := len(kv) / 2
	d.FormatDictionary(n)
	for i := 0; i < n; i++ {
		d.DictionarySetKey(i, kv[i*2].(string))
		switch val := kv[i*2+1].(type) {
		case string:
			d.DictionaryValue(i).FormatString(val)
		case int64:
			d.DictionaryValue(i).FormatInt(val)
		case []string:
			list := d.DictionaryValue(i)
			list.FormatList(len(val))
			for j, s := range val {
				list.ListAt(j).FormatString(s)
			}
		}
	}
	return d
}

// S1. Handshake success.
func TestHandshakeSuccess(t *testing.T) {
	t.Parallel()
	var sent bytes.Buffer
	server := bytes.NewReader([]byte{0x00, 0x00, 0x00, 0x03})
	rw := struct {
		io.Reader
		io.Writer
	}{server, &sent}

	version, err := protocol.Handshake(rw, protocol.DefaultVersionPreferences)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if version != 3 {
		t.Fatalf("got version %d, want 3", version)
	}
	want := []byte{0x60, 0x60, 0xB0, 0x17, 0, 0, 0, 3, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 0}
	if !bytes.Equal(sent.Bytes(), want) {
		t.Fatalf("sent handshake % X, want % X", sent.Bytes(), want)
	}
}

// S2. Handshake rejection.
func TestHandshakeRejection(t *testing.T) {
	t.Parallel()
	var sent bytes.Buffer
	server := bytes.NewReader([]byte{0x00, 0x00, 0x00, 0x00})
	rw := struct {
		io.Reader
		io.Writer
	}{server, &sent}

	_, err := protocol.Handshake(rw, protocol.DefaultVersionPreferences)
	if err == nil {
		t.Fatal("expected handshake rejection to fail")
	}
}

// S5. Run-pull round trip, and Property 4 (fetch ordering).
func TestRunPullRoundTrip(t *testing.T) {
	t.Parallel()
	wire := &fakeWire{}
	p := protocol.NewV1(wire)

	runID, err := p.Run(context.Background(), "RETURN 1", nil, protocol.TxMeta{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	pullID, err := p.PullAll(context.Background())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}

	runSummary := successMeta("fields", []string{"1"})
	var record value.Value
	record.FormatInt(1)
	recordStruct := []value.Value{record}
	pullSummary := successMeta("type", "r")

	wire.inbound = []sentMessage{
		{tag: protocol.TagSuccess, fields: []value.Value{runSummary}},
		{tag: protocol.TagRecord, fields: recordStruct},
		{tag: protocol.TagSuccess, fields: []value.Value{pullSummary}},
	}

	outcome1, err := p.Fetch(context.Background(), runID)
	if err != nil {
		t.Fatalf("fetch run summary: %v", err)
	}
	if outcome1.Kind != protocol.FetchSummaryReady || outcome1.Summary.Kind != protocol.SummarySuccess {
		t.Fatalf("unexpected run outcome: %+v", outcome1)
	}

	outcome2, err := p.Fetch(context.Background(), pullID)
	if err != nil {
		t.Fatalf("fetch record: %v", err)
	}
	if outcome2.Kind != protocol.FetchRecord {
		t.Fatalf("expected a record, got %+v", outcome2)
	}

	outcome3, err := p.Fetch(context.Background(), pullID)
	if err != nil {
		t.Fatalf("fetch pull summary: %v", err)
	}
	if outcome3.Kind != protocol.FetchSummaryReady || outcome3.Summary.Kind != protocol.SummarySuccess {
		t.Fatalf("unexpected pull outcome: %+v", outcome3)
	}

	if got := p.State().ResultFields; len(got) != 1 || got[0] != "1" {
		t.Fatalf("result fields not merged: %v", got)
	}
}

// S6. Failure + reset.
func TestFailureThenReset(t *testing.T) {
	t.Parallel()
	wire := &fakeWire{}
	p := protocol.NewV1(wire)

	runID, _ := p.Run(context.Background(), "INVALID", nil, protocol.TxMeta{})
	pullID, _ := p.PullAll(context.Background())
	failureMeta := successMeta("code", "Neo.ClientError.Statement.SyntaxError", "message", "bad cypher")

	wire.inbound = []sentMessage{
		{tag: protocol.TagFailure, fields: []value.Value{failureMeta}},
		{tag: protocol.TagIgnored, fields: nil},
	}

	outcome, err := p.Fetch(context.Background(), runID)
	if err != nil {
		t.Fatalf("fetch failure: %v", err)
	}
	if outcome.Summary.Kind != protocol.SummaryFailure {
		t.Fatalf("expected failure summary, got %+v", outcome.Summary)
	}
	if p.State().FailureData == nil {
		t.Fatal("expected failure_data to be populated")
	}

	ignoredOutcome, err := p.Fetch(context.Background(), pullID)
	if err != nil {
		t.Fatalf("fetch ignored: %v", err)
	}
	if ignoredOutcome.Summary.Kind != protocol.SummaryIgnored {
		t.Fatalf("expected ignored summary, got %+v", ignoredOutcome.Summary)
	}

	resetID, err := p.Reset(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	wire.inbound = append(wire.inbound, sentMessage{tag: protocol.TagSuccess, fields: []value.Value{{}}})
	outcome2, err := p.Fetch(context.Background(), resetID)
	if err != nil {
		t.Fatalf("fetch reset summary: %v", err)
	}
	if outcome2.Summary.Kind != protocol.SummarySuccess {
		t.Fatalf("expected reset to succeed, got %+v", outcome2.Summary)
	}
	if p.State().FailureData != nil {
		t.Fatal("expected failure_data cleared after reset")
	}
}
