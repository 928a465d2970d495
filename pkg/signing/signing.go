// Package signing implements ECDSA-P256-SHA256 signing over canonical bytes
// and the matching stateless verification.
package signing

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/asn1"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

const Algorithm = "ECDSA-P256-SHA256"

var (
	ErrInvalidEncoding = errors.New("invalid encoding")
)

// Signer holds the loaded private key for the process lifetime. The key is
// never mutated after construction, so concurrent Sign calls need no locking.
type Signer struct {
	key *ecdsa.PrivateKey
}

func NewSigner(key *ecdsa.PrivateKey) (*Signer, error) {
	if key == nil || key.Curve != elliptic.P256() {
		return nil, &domain.CryptoError{Op: "init", Err: errors.New("signer requires a P-256 private key")}
	}
	return &Signer{key: key}, nil
}

// Sign signs SHA-256(canonicalBytes) and returns the ASN.1 DER signature in
// standard base64.
func (s *Signer) Sign(canonicalBytes []byte) (string, error) {
	digest := sha256.Sum256(canonicalBytes)
	sig, err := ecdsa.SignASN1(rand.Reader, s.key, digest[:])
	if err != nil {
		return "", &domain.CryptoError{Op: "sign", Err: err}
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// PublicKeyB64 returns the uncompressed public point (0x04||X||Y) in standard
// base64, the form embedded in evidence payloads and accepted by Verify.
func (s *Signer) PublicKeyB64() string {
	return EncodePublicKey(&s.key.PublicKey)
}

func EncodePublicKey(pub *ecdsa.PublicKey) string {
	point := make([]byte, 1, 65)
	point[0] = 0x04
	point = append(point, pub.X.FillBytes(make([]byte, 32))...)
	point = append(point, pub.Y.FillBytes(make([]byte, 32))...)
	return base64.StdEncoding.EncodeToString(point)
}

// Verify checks sigB64 over SHA-256(canonicalBytes) under publicKeyB64. Pure
// function, safe for arbitrary concurrent callers. Returns an error only for
// malformed encodings; a well-formed but wrong signature is (false, nil).
func Verify(canonicalBytes []byte, sigB64, publicKeyB64 string) (bool, error) {
	pub, err := DecodePublicKey(publicKeyB64)
	if err != nil {
		return false, err
	}
	sig, err := decodeSignature(sigB64)
	if err != nil {
		return false, err
	}
	digest := sha256.Sum256(canonicalBytes)
	r, s, err := parseSignature(sig)
	if err != nil {
		return false, ErrInvalidEncoding
	}
	return ecdsa.Verify(pub, digest[:], r, s), nil
}

func DecodePublicKey(publicKeyB64 string) (*ecdsa.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(publicKeyB64))
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	if len(raw) != 65 || raw[0] != 0x04 {
		return nil, ErrInvalidEncoding
	}
	curve := elliptic.P256()
	x := new(big.Int).SetBytes(raw[1:33])
	y := new(big.Int).SetBytes(raw[33:65])
	if !curve.IsOnCurve(x, y) {
		return nil, ErrInvalidEncoding
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

func decodeSignature(sigB64 string) ([]byte, error) {
	s := strings.TrimSpace(sigB64)
	if s == "" {
		return nil, ErrInvalidEncoding
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	return b, nil
}

// parseSignature accepts ASN.1 DER or raw r||s (64 bytes).
func parseSignature(sig []byte) (*big.Int, *big.Int, error) {
	var parsed struct{ R, S *big.Int }
	if rest, err := asn1.Unmarshal(sig, &parsed); err == nil && len(rest) == 0 {
		return parsed.R, parsed.S, nil
	}
	if len(sig) == 64 {
		r := new(big.Int).SetBytes(sig[:32])
		s := new(big.Int).SetBytes(sig[32:])
		return r, s, nil
	}
	return nil, nil, ErrInvalidEncoding
}

// WellFormedSignature reports whether sigB64 decodes to a parseable ECDSA
// signature without verifying it against any key.
func WellFormedSignature(sigB64 string) bool {
	sig, err := decodeSignature(sigB64)
	if err != nil {
		return false
	}
	_, _, err = parseSignature(sig)
	return err == nil
}
