package wire

import (
	"bufio"
	"bytes"
	"errors"
	"reflect"
	"testing"
)

type fakeResolver struct {
	encode func(v any) (byte, string, bool)
	decode func(tag byte, name string) any
}

func (f fakeResolver) EncodeRef(v any) (byte, string, bool) {
	if f.encode == nil {
		return 0, "", false
	}
	return f.encode(v)
}

func (f fakeResolver) DecodeRef(tag byte, name string) any {
	if f.decode == nil {
		return nil
	}
	return f.decode(tag, name)
}

func roundTrip(t *testing.T, v any, res Resolver) any {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodeValue(&buf, v, res); err != nil {
		t.Fatalf("EncodeValue(%v): %v", v, err)
	}
	got, err := DecodeValue(bufio.NewReader(&buf), res)
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	return got
}

func TestEncodeValueRoundTripScalars(t *testing.T) {
	cases := []any{
		nil,
		true,
		false,
		int64(42),
		int64(-7),
		3.5,
		"hello",
		[]byte("bytes"),
		Symbol("sym"),
		ClassToken("Counter"),
	}
	for _, v := range cases {
		got := roundTrip(t, v, nil)
		if !reflect.DeepEqual(got, v) {
			t.Errorf("round trip %#v: got %#v", v, got)
		}
	}
}

func TestEncodeValueRoundTripIntKinds(t *testing.T) {
	got := roundTrip(t, int32(9), nil)
	if got != int64(9) {
		t.Fatalf("int32 round trip: got %#v, want int64(9)", got)
	}
}

func TestEncodeValueRoundTripArrayAndMap(t *testing.T) {
	arr := []any{int64(1), "two", nil, true}
	got := roundTrip(t, arr, nil)
	if !reflect.DeepEqual(got, arr) {
		t.Fatalf("array round trip: got %#v, want %#v", got, arr)
	}

	m := map[string]any{"a": int64(1), "b": "two"}
	got = roundTrip(t, m, nil)
	if !reflect.DeepEqual(got, m) {
		t.Fatalf("map round trip: got %#v, want %#v", got, m)
	}
}

func TestEncodeValueException(t *testing.T) {
	exc := &Exception{Class: "RuntimeError", Message: "boom", Backtrace: []string{"a.go:1", "b.go:2"}}
	got := roundTrip(t, exc, nil)
	gotExc, ok := got.(*Exception)
	if !ok {
		t.Fatalf("expected *Exception, got %T", got)
	}
	if gotExc.Class != exc.Class || gotExc.Message != exc.Message || !reflect.DeepEqual(gotExc.Backtrace, exc.Backtrace) {
		t.Fatalf("exception round trip mismatch: got %#v, want %#v", gotExc, exc)
	}
	if gotExc.Error() != "RuntimeError: boom" {
		t.Errorf("Error() = %q", gotExc.Error())
	}
}

type customRef struct{ id int }

func TestEncodeValueUsesResolverForUnknownType(t *testing.T) {
	obj := &customRef{id: 5}
	res := fakeResolver{
		encode: func(v any) (byte, string, bool) {
			if r, ok := v.(*customRef); ok {
				return TagProxy, "ref-1", r.id == 5
			}
			return 0, "", false
		},
		decode: func(tag byte, name string) any {
			if tag == TagProxy && name == "ref-1" {
				return obj
			}
			return nil
		},
	}
	got := roundTrip(t, obj, res)
	if got != obj {
		t.Fatalf("resolver round trip: got %#v, want %#v", got, obj)
	}
}

func TestEncodeValueUnencodableWithoutResolver(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeValue(&buf, &customRef{}, nil)
	if !errors.Is(err, ErrUnencodable) {
		t.Fatalf("expected ErrUnencodable, got %v", err)
	}
}

func TestDecodeValueUnknownTagWithoutResolver(t *testing.T) {
	buf := []byte{0x08}
	_, err := DecodeValue(bufio.NewReader(bytes.NewReader(buf)), nil)
	if !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
}
