package wire

import (
	"bufio"
	"bytes"
	"reflect"
	"testing"
)

func roundTripMessage(t *testing.T, m *Message) *Message {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, m, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(bufio.NewReader(&buf), nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestMessageInvokeRoundTrip(t *testing.T) {
	m := &Message{
		Tag:        TagInvoke,
		TxnID:      7,
		ObjectName: "counter",
		Method:     "increment",
		Args:       []any{int64(1), "two"},
		Kwargs:     map[string]any{"flag": true},
		HasBlock:   true,
	}
	got := roundTripMessage(t, m)
	if got.Tag != m.Tag || got.TxnID != m.TxnID || got.ObjectName != m.ObjectName || got.Method != m.Method || got.HasBlock != m.HasBlock {
		t.Fatalf("invoke round trip header mismatch: got %+v", got)
	}
	if !reflect.DeepEqual(got.Args, m.Args) {
		t.Errorf("Args: got %#v, want %#v", got.Args, m.Args)
	}
	if !reflect.DeepEqual(got.Kwargs, m.Kwargs) {
		t.Errorf("Kwargs: got %#v, want %#v", got.Kwargs, m.Kwargs)
	}
}

func TestMessageReturnRoundTrip(t *testing.T) {
	m := &Message{Tag: TagReturn, TxnID: 3, Result: int64(99)}
	got := roundTripMessage(t, m)
	if got.TxnID != 3 || got.Result != int64(99) {
		t.Fatalf("return round trip mismatch: got %+v", got)
	}
}

func TestMessageYieldNextRoundTrip(t *testing.T) {
	y := &Message{Tag: TagYield, TxnID: 5, Values: []any{int64(1), int64(2)}}
	got := roundTripMessage(t, y)
	if !reflect.DeepEqual(got.Values, y.Values) {
		t.Fatalf("yield round trip mismatch: got %#v", got.Values)
	}

	n := &Message{Tag: TagNext, TxnID: 5, Value: "ack"}
	got = roundTripMessage(t, n)
	if got.Value != "ack" {
		t.Fatalf("next round trip mismatch: got %#v", got.Value)
	}
}

func TestMessageErrorRoundTrip(t *testing.T) {
	m := &Message{Tag: TagError, TxnID: 1, Err: &Exception{Class: "NotFoundError", Message: "no object"}}
	got := roundTripMessage(t, m)
	if got.Err == nil || got.Err.Class != "NotFoundError" || got.Err.Message != "no object" {
		t.Fatalf("error round trip mismatch: got %+v", got.Err)
	}
}

func TestMessageThrowRoundTrip(t *testing.T) {
	m := &Message{Tag: TagThrow, TxnID: 2, ThrowTag: Symbol("stop"), ThrowValue: int64(42)}
	got := roundTripMessage(t, m)
	if got.ThrowTag != Symbol("stop") || got.ThrowValue != int64(42) {
		t.Fatalf("throw round trip mismatch: got %+v", got)
	}
}

func TestMessageCloseAndReleaseRoundTrip(t *testing.T) {
	c := &Message{Tag: TagClose, TxnID: 9}
	got := roundTripMessage(t, c)
	if got.TxnID != 9 {
		t.Fatalf("close round trip mismatch: got %+v", got)
	}

	r := &Message{Tag: TagRelease, ReleaseName: "implicit-1"}
	got = roundTripMessage(t, r)
	if got.ReleaseName != "implicit-1" {
		t.Fatalf("release round trip mismatch: got %+v", got)
	}
}

func TestDecodeUnknownTagFails(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0x7f)
	if _, err := Decode(bufio.NewReader(&buf), nil); err == nil {
		t.Fatal("expected error decoding unknown message tag")
	}
}
