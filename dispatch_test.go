package bus

import (
	"context"
	"errors"
	"testing"
)

type reflectTarget struct{}

func (reflectTarget) Add(a, b int64) (int64, error) {
	return a + b, nil
}

func (reflectTarget) Fail() error {
	return errors.New("nope")
}

func (reflectTarget) Stream(limit int64, block BlockCaller) (any, error) {
	var last any
	for i := int64(1); i <= limit; i++ {
		v, err := block([]any{i})
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func TestReflectDispatchPositionalArgs(t *testing.T) {
	d := Reflect(reflectTarget{})
	result, err := d.Dispatch(context.Background(), "Add", []any{int64(1), int64(2)}, nil, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result != int64(3) {
		t.Fatalf("Dispatch result = %v, want 3", result)
	}
}

func TestReflectDispatchErrorResult(t *testing.T) {
	d := Reflect(reflectTarget{})
	_, err := d.Dispatch(context.Background(), "Fail", nil, nil, nil)
	if err == nil || err.Error() != "nope" {
		t.Fatalf("Dispatch error = %v, want nope", err)
	}
}

func TestReflectDispatchUnknownMethod(t *testing.T) {
	d := Reflect(reflectTarget{})
	_, err := d.Dispatch(context.Background(), "Missing", nil, nil, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown method")
	}
}

func TestReflectDispatchBlockArgument(t *testing.T) {
	d := Reflect(reflectTarget{})
	var seen []int64
	block := func(values []any) (any, error) {
		seen = append(seen, values[0].(int64))
		return values[0], nil
	}
	result, err := d.Dispatch(context.Background(), "Stream", []any{int64(3)}, nil, block)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result != int64(3) {
		t.Fatalf("Dispatch result = %v, want 3", result)
	}
	if len(seen) != 3 {
		t.Fatalf("block invoked %d times, want 3", len(seen))
	}
}

func TestReflectDispatchArgCountMismatch(t *testing.T) {
	d := Reflect(reflectTarget{})
	_, err := d.Dispatch(context.Background(), "Add", []any{int64(1)}, nil, nil)
	if err == nil {
		t.Fatal("expected an arg count mismatch error")
	}
}
