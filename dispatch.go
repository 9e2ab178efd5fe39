package bus

import (
	"context"
	"fmt"
	"reflect"

	"github.com/socketry/async-bus/internal/txn"
)

// BlockCaller is the local callback a block-bearing invoke feeds each
// Yield through during dispatch. Implementations of Dispatchable that
// take a block argument call it once per value they want to stream back
// to the initiator, and use the returned value (or error) as the result
// of that iteration step.
type BlockCaller = txn.BlockCaller

// Dispatchable is implemented by anything bound into a connection's
// object registry that wants to route arbitrary method calls through
// method name rather than through Go's static method set. Binding a
// value that does not implement Dispatchable falls back to Reflect.
type Dispatchable interface {
	Dispatch(ctx context.Context, method string, args []any, kwargs map[string]any, block BlockCaller) (any, error)
}

// Reflect adapts any Go value into a Dispatchable by resolving method
// as a case-sensitive exported method name via reflection. args are
// passed positionally; kwargs are not supported by the reflection
// adapter (a method wanting keyed arguments should implement
// Dispatchable directly). A block argument is appended as the final
// call argument only if the target method's last parameter type is
// BlockCaller.
func Reflect(target any) Dispatchable {
	return reflectDispatcher{target: target}
}

type reflectDispatcher struct {
	target any
}

func (d reflectDispatcher) Dispatch(ctx context.Context, method string, args []any, kwargs map[string]any, block BlockCaller) (any, error) {
	v := reflect.ValueOf(d.target)
	m := v.MethodByName(method)
	if !m.IsValid() {
		return nil, fmt.Errorf("bus: %T has no method %q", d.target, method)
	}
	mt := m.Type()

	wantsBlock := mt.NumIn() > 0 && mt.In(mt.NumIn()-1) == reflect.TypeOf(BlockCaller(nil))
	expected := mt.NumIn()
	if wantsBlock {
		expected--
	}
	if len(args) != expected {
		return nil, fmt.Errorf("bus: %T.%s expects %d args, got %d", d.target, method, expected, len(args))
	}

	in := make([]reflect.Value, 0, mt.NumIn())
	for i, a := range args {
		pt := mt.In(i)
		in = append(in, coerce(a, pt))
	}
	if wantsBlock {
		in = append(in, reflect.ValueOf(block))
	}

	out := m.Call(in)
	return splitResults(out)
}

func coerce(a any, pt reflect.Type) reflect.Value {
	if a == nil {
		return reflect.Zero(pt)
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(pt) {
		return v
	}
	if v.Type().ConvertibleTo(pt) {
		return v.Convert(pt)
	}
	return v
}

func splitResults(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type() == reflect.TypeOf((*error)(nil)).Elem() {
		var err error
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		if len(out) == 1 {
			return nil, err
		}
		if len(out) == 2 {
			return out[0].Interface(), err
		}
		vals := make([]any, len(out)-1)
		for i := range vals {
			vals[i] = out[i].Interface()
		}
		return vals, err
	}
	if len(out) == 1 {
		return out[0].Interface(), nil
	}
	vals := make([]any, len(out))
	for i := range vals {
		vals[i] = out[i].Interface()
	}
	return vals, nil
}
