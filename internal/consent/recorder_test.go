package consent

import (
	"context"
	"errors"
	"testing"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

type fakeAnalyses struct{ known map[string]bool }

func (f fakeAnalyses) GetAnalysis(ctx context.Context, id string) (domain.AnalysisResult, error) {
	if !f.known[id] {
		return domain.AnalysisResult{}, &domain.NotFoundError{Kind: "analysis", ID: id}
	}
	return domain.AnalysisResult{AnalysisID: id}, nil
}

type fakeConsents struct{ created []domain.ConsentRecord }

func (f *fakeConsents) CreateConsent(ctx context.Context, c domain.ConsentRecord) error {
	f.created = append(f.created, c)
	return nil
}

type fakeVoices struct {
	fail bool
	keys []string
}

func (f *fakeVoices) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.fail {
		return "", &domain.StorageError{Op: "put", Err: errors.New("disk full")}
	}
	f.keys = append(f.keys, key)
	return "voice/" + key, nil
}

func newTestRecorder(voices *fakeVoices) (*Recorder, *fakeConsents) {
	consents := &fakeConsents{}
	r := NewRecorder(fakeAnalyses{known: map[string]bool{"ana_1": true}}, consents, voices)
	return r, consents
}

func TestRecordConsentRejectsUnverifiedOTP(t *testing.T) {
	r, _ := newTestRecorder(&fakeVoices{})
	_, err := r.RecordConsent(context.Background(), RecordInput{AnalysisID: "ana_1", FingerprintHash: "f1"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRecordConsentRequiresFingerprint(t *testing.T) {
	r, _ := newTestRecorder(&fakeVoices{})
	_, err := r.RecordConsent(context.Background(), RecordInput{AnalysisID: "ana_1", OTPVerified: true, FingerprintHash: "  "})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRecordConsentUnknownAnalysis(t *testing.T) {
	r, _ := newTestRecorder(&fakeVoices{})
	_, err := r.RecordConsent(context.Background(), RecordInput{AnalysisID: "ana_missing", OTPVerified: true, FingerprintHash: "f1"})
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRecordConsentVoiceStorageFailureAborts(t *testing.T) {
	r, consents := newTestRecorder(&fakeVoices{fail: true})
	_, err := r.RecordConsent(context.Background(), RecordInput{
		AnalysisID: "ana_1", OTPVerified: true, FingerprintHash: "f1", VoiceBlob: []byte("audio"),
	})
	var se *domain.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if len(consents.created) != 0 {
		t.Fatalf("expected no partial consent record")
	}
}

func TestRecordConsentPersistsVoicePath(t *testing.T) {
	voices := &fakeVoices{}
	r, consents := newTestRecorder(voices)
	rec, err := r.RecordConsent(context.Background(), RecordInput{
		AnalysisID: "ana_1", OTPVerified: true, FingerprintHash: "f1", VoiceBlob: []byte("audio"),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.VoiceFilePath == nil || *rec.VoiceFilePath == "" {
		t.Fatalf("expected voice file path on record")
	}
	if len(consents.created) != 1 {
		t.Fatalf("expected one consent record created")
	}
	if len(voices.keys) != 1 {
		t.Fatalf("expected one voice blob stored")
	}
}

func TestRecordConsentWithoutVoice(t *testing.T) {
	r, _ := newTestRecorder(&fakeVoices{})
	rec, err := r.RecordConsent(context.Background(), RecordInput{
		AnalysisID: "ana_1", OTPVerified: true, FingerprintHash: "f1",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.VoiceFilePath != nil {
		t.Fatalf("expected nil voice path")
	}
	if rec.ConsentID == "" || rec.Timestamp.IsZero() {
		t.Fatalf("expected populated consent id and timestamp")
	}
}
