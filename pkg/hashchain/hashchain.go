// Package hashchain computes the document and evidence hashes and resolves
// the previous_hash link that makes evidence records for one document an
// append-only hash-linked sequence.
package hashchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DocumentHash is a pure function of (storage_path, created_at):
// hex(SHA-256(storage_path || RFC3339-UTC(created_at))).
func DocumentHash(storagePath string, createdAt time.Time) string {
	sum := sha256.Sum256([]byte(storagePath + createdAt.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:])
}

// EvidenceHash hashes the signed evidence JSON exactly as persisted. The
// caller must pass the stored bytes, never a re-serialization.
func EvidenceHash(signedEvidenceJSON []byte) string {
	sum := sha256.Sum256(signedEvidenceJSON)
	return hex.EncodeToString(sum[:])
}

// HeadLookup resolves the newest evidence hash for a document lineage.
type HeadLookup interface {
	LatestEvidenceHash(ctx context.Context, documentID string) (string, bool, error)
}

// LinkFor returns the evidence hash of the most recent prior record for the
// document, or nil when the lineage is empty.
func LinkFor(ctx context.Context, lookup HeadLookup, documentID string) (*string, error) {
	h, ok, err := lookup.LatestEvidenceHash(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &h, nil
}
