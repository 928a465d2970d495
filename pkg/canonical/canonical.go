// Package canonical produces the deterministic byte representation used for
// both signing and hashing. Canonical form is RFC 8785 (JCS): object keys
// sorted lexicographically, arrays in original order, fixed number and string
// encoding, no insignificant whitespace. Signature and hash validity both
// depend on this being byte-stable across construction order.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// Canonicalize returns the canonical JSON bytes for v.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(raw)
}

// CanonicalizeJSON canonicalizes already-marshaled JSON bytes. Idempotent:
// transforming canonical bytes returns byte-identical output.
func CanonicalizeJSON(raw []byte) ([]byte, error) {
	return jcs.Transform(raw)
}

// SumCanonical returns hex(SHA-256(canonical bytes)) and the canonical bytes.
func SumCanonical(v any) (string, []byte, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), b, nil
}

func HashStringSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
