// Package generator orchestrates one evidence-generation request: consent
// recording, assembly, canonicalization, signing, hash-chain linkage,
// persistence, then best-effort anchoring. Each request is one short-lived,
// stateless unit of work.
package generator

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya6721/lexplain-veritas-sync/internal/anchor"
	"github.com/Adithya6721/lexplain-veritas-sync/internal/assembler"
	"github.com/Adithya6721/lexplain-veritas-sync/internal/consent"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/canonical"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/evidence"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/hashchain"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/signing"
)

type Store interface {
	GetAnalysis(ctx context.Context, id string) (domain.AnalysisResult, error)
	GetDocument(ctx context.Context, id string) (domain.Document, error)
	CheckOTP(ctx context.Context, analysisID, code string) (bool, error)
	CreateEvidence(ctx context.Context, rec domain.EvidenceRecord) error
	GetEvidence(ctx context.Context, id string) (domain.EvidenceRecord, error)
	ListEvidenceForDocument(ctx context.Context, documentID string) ([]domain.EvidenceRecord, error)
}

type Anchorer interface {
	AnchorEvidence(ctx context.Context, evidenceID, evidenceHash string) anchor.Result
}

const anchorTimeout = 15 * time.Second

type Generator struct {
	store     Store
	recorder  *consent.Recorder
	assembler *assembler.Assembler
	signer    *signing.Signer
	anchorer  Anchorer
	logger    *slog.Logger
	now       func() time.Time
}

func New(store Store, recorder *consent.Recorder, asm *assembler.Assembler, signer *signing.Signer, anchorer Anchorer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		store:     store,
		recorder:  recorder,
		assembler: asm,
		signer:    signer,
		anchorer:  anchorer,
		logger:    logger.With("component", "generator"),
		now:       time.Now,
	}
}

type GenerateRequest struct {
	AnalysisID      string
	PhoneNumber     *string
	OTPCode         string
	FingerprintHash string
	VoiceBlob       []byte
	Location        *domain.Location
}

type GenerateResult struct {
	EvidenceID          string
	EvidenceHash        string
	Signature           string
	BlockchainAnchored  bool
	IPFSAnchored        bool
	FingerprintCaptured bool
	VoiceRecorded       bool
	LocationCaptured    bool
}

// Generate runs the full pipeline. Any validation, not-found, conflict,
// crypto, or storage error aborts with no partial EvidenceRecord; only
// anchoring is allowed to fail quietly.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	analysis, err := g.store.GetAnalysis(ctx, req.AnalysisID)
	if err != nil {
		return GenerateResult{}, err
	}
	doc, err := g.store.GetDocument(ctx, analysis.DocumentID)
	if err != nil {
		return GenerateResult{}, err
	}

	otpOK, err := g.store.CheckOTP(ctx, req.AnalysisID, req.OTPCode)
	if err != nil {
		return GenerateResult{}, err
	}
	if !otpOK {
		return GenerateResult{}, &domain.ValidationError{Reason: "OTP code did not verify"}
	}

	consentRec, err := g.recorder.RecordConsent(ctx, consent.RecordInput{
		AnalysisID:      req.AnalysisID,
		PhoneNumber:     req.PhoneNumber,
		OTPVerified:     true,
		FingerprintHash: req.FingerprintHash,
		VoiceBlob:       req.VoiceBlob,
		Location:        req.Location,
	})
	if err != nil {
		return GenerateResult{}, err
	}

	ev, err := g.assembler.Assemble(ctx, doc, analysis, consentRec)
	if err != nil {
		return GenerateResult{}, err
	}
	ev.Security.PublicKey = g.signer.PublicKeyB64()

	unsigned, err := evidence.SigningBytes(ev)
	if err != nil {
		return GenerateResult{}, &domain.CryptoError{Op: "canonicalize", Err: err}
	}
	sig, err := g.signer.Sign(unsigned)
	if err != nil {
		return GenerateResult{}, err
	}
	ev.Security.Signature = sig

	// The stored bytes are the canonical signed payload; the evidence hash and
	// any later re-verification both run over exactly these bytes.
	signedBytes, err := canonical.Canonicalize(ev)
	if err != nil {
		return GenerateResult{}, &domain.CryptoError{Op: "canonicalize signed payload", Err: err}
	}
	evidenceHash := hashchain.EvidenceHash(signedBytes)

	rec := domain.EvidenceRecord{
		EvidenceID:   ev.EvidenceID,
		ConsentID:    consentRec.ConsentID,
		DocumentID:   doc.DocumentID,
		EvidenceJSON: signedBytes,
		DocumentHash: ev.Document.Hash,
		EvidenceHash: evidenceHash,
		Signature:    sig,
		PublicKey:    ev.Security.PublicKey,
		PreviousHash: ev.Security.PreviousHash,
		CreatedAt:    g.now().UTC(),
	}
	if err := g.store.CreateEvidence(ctx, rec); err != nil {
		return GenerateResult{}, err
	}

	// Anchoring runs on its own context so a client disconnect cannot cancel
	// it; the record is already persisted either way.
	anchorCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), anchorTimeout)
	defer cancel()
	anchors := g.anchorer.AnchorEvidence(anchorCtx, rec.EvidenceID, evidenceHash)

	return GenerateResult{
		EvidenceID:          rec.EvidenceID,
		EvidenceHash:        evidenceHash,
		Signature:           sig,
		BlockchainAnchored:  anchors.TxHash != nil,
		IPFSAnchored:        anchors.IPFSHash != nil,
		FingerprintCaptured: true,
		VoiceRecorded:       consentRec.VoiceFilePath != nil,
		LocationCaptured:    consentRec.Location != nil,
	}, nil
}

type EvidenceView struct {
	Record   domain.EvidenceRecord
	Verified bool
	Report   evidence.VerificationReport
}

// GetEvidence returns the stored record with a re-verification summary
// computed from the exact persisted bytes.
func (g *Generator) GetEvidence(ctx context.Context, evidenceID string) (EvidenceView, error) {
	rec, err := g.store.GetEvidence(ctx, evidenceID)
	if err != nil {
		return EvidenceView{}, err
	}
	report := evidence.Verify(evidence.VerifyInput{
		EvidenceJSON: rec.EvidenceJSON,
		Signature:    rec.Signature,
		PublicKeyB64: rec.PublicKey,
		Prior:        g.priorBytes(ctx, rec),
	})
	return EvidenceView{
		Record:   rec,
		Verified: report.OverallStatus == evidence.StatusVerified,
		Report:   report,
	}, nil
}

// priorBytes resolves the stored bytes of the record this one links to, when
// it links at all.
func (g *Generator) priorBytes(ctx context.Context, rec domain.EvidenceRecord) []byte {
	if rec.PreviousHash == nil {
		return nil
	}
	records, err := g.store.ListEvidenceForDocument(ctx, rec.DocumentID)
	if err != nil {
		g.logger.Warn("prior record lookup failed", "evidence_id", rec.EvidenceID, "err", err)
		return nil
	}
	for _, r := range records {
		if r.EvidenceHash == *rec.PreviousHash {
			return r.EvidenceJSON
		}
	}
	return nil
}

type ChainLink struct {
	EvidenceID   string  `json:"evidence_id"`
	EvidenceHash string  `json:"evidence_hash"`
	PreviousHash *string `json:"previous_hash,omitempty"`
	LinkValid    bool    `json:"link_valid"`
	HashValid    bool    `json:"hash_valid"`
}

// AuditChain recomputes every record's evidence hash from its stored bytes
// and checks each previous_hash link, detecting deletion, reordering, or
// in-place corruption anywhere in the lineage.
func (g *Generator) AuditChain(ctx context.Context, documentID string) ([]ChainLink, error) {
	records, err := g.store.ListEvidenceForDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &domain.NotFoundError{Kind: "evidence chain", ID: documentID}
	}

	links := make([]ChainLink, 0, len(records))
	for i, rec := range records {
		recomputed := hashchain.EvidenceHash(rec.EvidenceJSON)
		link := ChainLink{
			EvidenceID:   rec.EvidenceID,
			EvidenceHash: rec.EvidenceHash,
			PreviousHash: rec.PreviousHash,
			HashValid:    recomputed == rec.EvidenceHash,
		}
		switch {
		case i == 0:
			link.LinkValid = rec.PreviousHash == nil
		case rec.PreviousHash == nil:
			link.LinkValid = false
		default:
			prev := records[i-1]
			link.LinkValid = *rec.PreviousHash == hashchain.EvidenceHash(prev.EvidenceJSON)
		}
		links = append(links, link)
	}
	return links, nil
}

// RetryAnchors re-runs anchoring for an existing record, backfilling any
// handles still missing.
func (g *Generator) RetryAnchors(ctx context.Context, evidenceID string) (anchor.Result, error) {
	rec, err := g.store.GetEvidence(ctx, evidenceID)
	if err != nil {
		return anchor.Result{}, err
	}
	anchorCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), anchorTimeout)
	defer cancel()
	return g.anchorer.AnchorEvidence(anchorCtx, rec.EvidenceID, rec.EvidenceHash), nil
}
