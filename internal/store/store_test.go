package store

import "testing"

func TestHashOTPDeterministic(t *testing.T) {
	a := HashOTP("123456")
	b := HashOTP("123456")
	c := HashOTP("654321")
	if a != b {
		t.Fatalf("expected deterministic hash")
	}
	if a == c {
		t.Fatalf("expected different hashes for different codes")
	}
}
