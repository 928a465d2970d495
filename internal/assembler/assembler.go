// Package assembler combines a completed document, its analysis, and a
// verified consent into an unsigned canonical Evidence value.
package assembler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/evidence"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/hashchain"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/signing"
)

type Assembler struct {
	heads hashchain.HeadLookup
	now   func() time.Time
}

func New(heads hashchain.HeadLookup) *Assembler {
	return &Assembler{heads: heads, now: time.Now}
}

// Assemble builds the unsigned evidence payload. Analysis fields are copied
// verbatim: clause content is the analysis provider's responsibility, not
// re-validated here. The caller signs the result.
func (a *Assembler) Assemble(ctx context.Context, doc domain.Document, analysis domain.AnalysisResult, consent domain.ConsentRecord) (evidence.Evidence, error) {
	if !consent.OTPVerified {
		return evidence.Evidence{}, &domain.PreconditionError{Reason: "consent OTP not verified"}
	}
	if doc.Status != domain.DocumentCompleted {
		return evidence.Evidence{}, &domain.PreconditionError{Reason: "document is not completed: " + string(doc.Status)}
	}

	previousHash, err := hashchain.LinkFor(ctx, a.heads, doc.DocumentID)
	if err != nil {
		return evidence.Evidence{}, err
	}

	ev := evidence.Evidence{
		EvidenceID: "evd_" + uuid.NewString(),
		Timestamp:  evidence.FormatTimestamp(a.now()),
		Document: evidence.DocumentInfo{
			DocumentID: doc.DocumentID,
			Filename:   doc.Filename,
			Hash:       hashchain.DocumentHash(doc.StoragePath, doc.CreatedAt),
		},
		Analysis: evidence.AnalysisInfo{
			OCRConfidence:      analysis.OCRConfidence,
			Clauses:            analysis.Clauses,
			AuthFlags:          analysis.AuthFlags,
			AnalysisConfidence: analysis.AnalysisConfidence,
		},
		Consent: evidence.ConsentInfo{
			PhoneNumber:          consent.PhoneNumber,
			OTPVerified:          consent.OTPVerified,
			FingerprintHash:      consent.FingerprintHash,
			VoiceConsentRecorded: consent.VoiceFilePath != nil,
			VoiceFilePath:        consent.VoiceFilePath,
			Location:             consent.Location,
			Timestamp:            evidence.FormatTimestamp(consent.Timestamp),
		},
		Security: evidence.Security{
			Version:      evidence.Version,
			Algorithm:    signing.Algorithm,
			PreviousHash: previousHash,
		},
	}
	return ev, nil
}
