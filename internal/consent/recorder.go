// Package consent validates raw consent inputs and persists immutable
// ConsentRecords.
package consent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya6721/lexplain-veritas-sync/internal/voicestore"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

// AnalysisResolver confirms the analysis a consent refers to actually exists.
type AnalysisResolver interface {
	GetAnalysis(ctx context.Context, id string) (domain.AnalysisResult, error)
}

type ConsentWriter interface {
	CreateConsent(ctx context.Context, c domain.ConsentRecord) error
}

type Recorder struct {
	analyses AnalysisResolver
	consents ConsentWriter
	voices   voicestore.BlobStore
	now      func() time.Time
}

func NewRecorder(analyses AnalysisResolver, consents ConsentWriter, voices voicestore.BlobStore) *Recorder {
	return &Recorder{analyses: analyses, consents: consents, voices: voices, now: time.Now}
}

type RecordInput struct {
	AnalysisID      string
	PhoneNumber     *string
	OTPVerified     bool
	FingerprintHash string
	VoiceBlob       []byte
	Location        *domain.Location
}

// RecordConsent validates the inputs, persists the voice blob when present,
// then persists the consent row. The voice blob goes first: if its storage
// fails the record is never created, so a ConsentRecord can never reference a
// blob that was not stored.
func (r *Recorder) RecordConsent(ctx context.Context, in RecordInput) (domain.ConsentRecord, error) {
	if !in.OTPVerified {
		return domain.ConsentRecord{}, &domain.ValidationError{Reason: "OTP not verified"}
	}
	if strings.TrimSpace(in.FingerprintHash) == "" {
		return domain.ConsentRecord{}, &domain.ValidationError{Reason: "fingerprint hash is required"}
	}
	if _, err := r.analyses.GetAnalysis(ctx, in.AnalysisID); err != nil {
		return domain.ConsentRecord{}, err
	}

	rec := domain.ConsentRecord{
		ConsentID:       "cns_" + uuid.NewString(),
		AnalysisID:      in.AnalysisID,
		PhoneNumber:     in.PhoneNumber,
		OTPVerified:     true,
		FingerprintHash: in.FingerprintHash,
		Location:        in.Location,
		Timestamp:       r.now().UTC(),
	}

	if len(in.VoiceBlob) > 0 {
		key := fmt.Sprintf("%s/%s.webm", in.AnalysisID, rec.ConsentID)
		path, err := r.voices.Put(ctx, key, in.VoiceBlob, "audio/webm")
		if err != nil {
			return domain.ConsentRecord{}, err
		}
		rec.VoiceFilePath = &path
	}

	if err := r.consents.CreateConsent(ctx, rec); err != nil {
		return domain.ConsentRecord{}, err
	}
	return rec, nil
}
