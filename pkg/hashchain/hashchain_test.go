package hashchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"
)

func TestDocumentHashMatchesConcatenation(t *testing.T) {
	createdAt, err := time.Parse(time.RFC3339, "2025-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := sha256.Sum256([]byte("documents/u1/a.pdf2025-01-01T00:00:00Z"))
	got := DocumentHash("documents/u1/a.pdf", createdAt)
	if got != hex.EncodeToString(want[:]) {
		t.Fatalf("unexpected document hash %s", got)
	}
}

func TestDocumentHashPure(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	a := DocumentHash("documents/u1/a.pdf", at)
	b := DocumentHash("documents/u1/a.pdf", at)
	if a != b {
		t.Fatalf("expected identical hashes for identical inputs")
	}
	if DocumentHash("documents/u1/b.pdf", at) == a {
		t.Fatalf("expected path change to change hash")
	}
	if DocumentHash("documents/u1/a.pdf", at.Add(time.Second)) == a {
		t.Fatalf("expected timestamp change to change hash")
	}
}

func TestDocumentHashNormalizesToUTC(t *testing.T) {
	utc := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	offset := utc.In(time.FixedZone("plus2", 2*60*60))
	if DocumentHash("p", utc) != DocumentHash("p", offset) {
		t.Fatalf("expected timezone-independent hash")
	}
}

type fakeHead struct {
	hash string
	ok   bool
}

func (f fakeHead) LatestEvidenceHash(ctx context.Context, documentID string) (string, bool, error) {
	return f.hash, f.ok, nil
}

func TestLinkForEmptyLineage(t *testing.T) {
	prev, err := LinkFor(context.Background(), fakeHead{}, "doc_1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if prev != nil {
		t.Fatalf("expected nil previous hash, got %v", *prev)
	}
}

func TestLinkForReturnsHead(t *testing.T) {
	prev, err := LinkFor(context.Background(), fakeHead{hash: "abc", ok: true}, "doc_1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if prev == nil || *prev != "abc" {
		t.Fatalf("expected head hash, got %v", prev)
	}
}

func TestEvidenceHashByteSensitive(t *testing.T) {
	a := EvidenceHash([]byte(`{"a":1}`))
	b := EvidenceHash([]byte(`{"a":1} `))
	if a == b {
		t.Fatalf("expected trailing byte to change evidence hash")
	}
}
