// Package anchor submits evidence hashes to external immutable stores. Both
// channels are optional and best-effort: an unconfigured or failing channel
// leaves its handle NULL on the record and never fails evidence generation.
package anchor

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

type AnchorStore interface {
	UpdateAnchors(ctx context.Context, evidenceID string, txHash, ipfsHash *string) error
}

type Result struct {
	TxHash   *string
	IPFSHash *string
}

type Anchorer struct {
	ipfs   *IPFSClient
	ledger *LedgerClient
	store  AnchorStore
	logger *slog.Logger

	attempts int
	backoff  time.Duration
}

func NewAnchorer(ipfs *IPFSClient, ledger *LedgerClient, store AnchorStore, logger *slog.Logger) *Anchorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Anchorer{
		ipfs:     ipfs,
		ledger:   ledger,
		store:    store,
		logger:   logger.With("component", "anchorer"),
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
}

// AnchorEvidence runs both channels and backfills whatever handles it
// obtained onto the persisted record. Safe to call again later for records
// with missing handles: re-anchoring the same hash does not create duplicate
// anchors.
func (a *Anchorer) AnchorEvidence(ctx context.Context, evidenceID, evidenceHash string) Result {
	var res Result

	if a.ipfs.Configured() {
		if cid, err := a.withRetry(ctx, "ipfs", func(ctx context.Context) (string, error) {
			return a.ipfs.Add(ctx, evidenceHash)
		}); err == nil {
			res.IPFSHash = &cid
		}
	} else {
		a.logger.Debug("ipfs anchoring not configured, skipping", "evidence_id", evidenceID)
	}

	if a.ledger.Configured() {
		if tx, err := a.withRetry(ctx, "ledger", func(ctx context.Context) (string, error) {
			return a.ledger.Submit(ctx, evidenceHash)
		}); err == nil {
			res.TxHash = &tx
		}
	} else {
		a.logger.Debug("ledger anchoring not configured, skipping", "evidence_id", evidenceID)
	}

	if res.TxHash == nil && res.IPFSHash == nil {
		return res
	}
	if err := a.store.UpdateAnchors(ctx, evidenceID, res.TxHash, res.IPFSHash); err != nil {
		a.logger.Warn("anchor backfill failed", "evidence_id", evidenceID, "err", err)
	}
	return res
}

// withRetry runs fn up to a.attempts times with doubling backoff. Failures
// surface only as an AnchoringError in the log.
func (a *Anchorer) withRetry(ctx context.Context, channel string, fn func(context.Context) (string, error)) (string, error) {
	delay := a.backoff
	var lastErr error
	for attempt := 1; attempt <= a.attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt < a.attempts {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = a.attempts
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	anchorErr := &domain.AnchoringError{Channel: channel, Err: lastErr}
	a.logger.Warn("anchoring failed, handle left null", "channel", channel, "err", anchorErr)
	return "", anchorErr
}
