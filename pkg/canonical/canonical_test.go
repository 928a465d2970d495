package canonical

import (
	"bytes"
	"testing"
)

func TestCanonicalizeDeterministicForSameState(t *testing.T) {
	a := map[string]any{
		"b": 2,
		"a": map[string]any{"y": 2, "x": 1},
	}
	b := map[string]any{
		"a": map[string]any{"x": 1, "y": 2},
		"b": 2,
	}

	ba, err := Canonicalize(a)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	bb, err := Canonicalize(b)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !bytes.Equal(ba, bb) {
		t.Fatalf("expected byte-identical output, got %s vs %s", ba, bb)
	}
}

func TestCanonicalizeSortsKeys(t *testing.T) {
	b, err := Canonicalize(map[string]any{"z": 1, "a": 2, "m": 3})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(b) != `{"a":2,"m":3,"z":1}` {
		t.Fatalf("unexpected canonical form: %s", b)
	}
}

func TestCanonicalizeJSONIdempotent(t *testing.T) {
	first, err := Canonicalize(map[string]any{"b": []any{1, "two", true}, "a": nil})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := CanonicalizeJSON(first)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected idempotent transform, got %s vs %s", first, second)
	}
}

func TestSumCanonicalEqualForReorderedMaps(t *testing.T) {
	ha, _, err := SumCanonical(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	hb, _, err := SumCanonical(map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ha != hb {
		t.Fatalf("expected same hash, got %s vs %s", ha, hb)
	}
}

func TestSumCanonicalChangesWhenStateChanges(t *testing.T) {
	ha, _, _ := SumCanonical(map[string]any{"a": 1})
	hb, _, _ := SumCanonical(map[string]any{"a": 2})
	if ha == hb {
		t.Fatalf("expected different hashes")
	}
}
