package rpcerr

import "testing"

func TestKindCodes(t *testing.T) {
	cases := map[Kind]int{
		InvalidArgs:       -32602,
		NoReplay:          -32002,
		Unauthorized:      -32002,
		NoSession:         -32002,
		NotFound:          -32001,
		OutOfRange:        -32001,
		ResourceMissing:   -32001,
		DebugNotAvailable: -32007,
		DecodeFailed:      -32603,
		Internal:          -32603,
		MethodNotFound:    -32601,
	}
	for k, want := range cases {
		if got := k.Code(); got != want {
			t.Errorf("%s.Code() = %d, want %d", k, got, want)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := New(Internal, "ffi exploded")
	wrapped := Wrap(DecodeFailed, cause, "decoding cbuffer")

	if wrapped.Code() != DecodeFailed.Code() {
		t.Errorf("Code() = %d, want %d", wrapped.Code(), DecodeFailed.Code())
	}
	if wrapped.Unwrap() != cause {
		t.Errorf("Unwrap() did not return the original cause")
	}
}

func TestAsExtractsError(t *testing.T) {
	err := New(NotFound, "no eid %d", 42)
	e, ok := As(err)
	if !ok {
		t.Fatal("As() = false, want true for an *Error")
	}
	if e.Kind != NotFound {
		t.Errorf("Kind = %s, want NotFound", e.Kind)
	}

	if _, ok := As(nil); ok {
		t.Error("As(nil) = true, want false")
	}
}
