// Package evidence defines the canonical, signable evidence payload and the
// verification procedure that re-derives its validity from stored bytes.
package evidence

import (
	"time"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/canonical"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

const Version = "evidence-v1"

// Evidence is the canonical payload that gets signed. Field order is
// irrelevant: canonicalization sorts keys before signing and hashing.
type Evidence struct {
	EvidenceID string       `json:"evidence_id"`
	Timestamp  string       `json:"timestamp"`
	Document   DocumentInfo `json:"document"`
	Analysis   AnalysisInfo `json:"analysis"`
	Consent    ConsentInfo  `json:"consent"`
	Security   Security     `json:"security"`
}

type DocumentInfo struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Hash       string `json:"hash"`
}

type AnalysisInfo struct {
	OCRConfidence      float64          `json:"ocr_confidence"`
	Clauses            []domain.Clause  `json:"clauses"`
	AuthFlags          domain.AuthFlags `json:"auth_flags"`
	AnalysisConfidence float64          `json:"analysis_confidence"`
}

type ConsentInfo struct {
	PhoneNumber          *string          `json:"phone_number"`
	OTPVerified          bool             `json:"otp_verified"`
	FingerprintHash      string           `json:"fingerprint_hash"`
	VoiceConsentRecorded bool             `json:"voice_consent_recorded"`
	VoiceFilePath        *string          `json:"voice_file_path"`
	Location             *domain.Location `json:"location"`
	Timestamp            string           `json:"timestamp"`
}

type Security struct {
	Version      string  `json:"version"`
	Algorithm    string  `json:"algorithm"`
	PreviousHash *string `json:"previous_hash"`
	PublicKey    string  `json:"public_key"`
	Signature    string  `json:"signature"`
}

// SigningBytes returns the canonical bytes of ev with security.signature
// cleared. The same bytes are produced before signing and during
// verification; any divergence breaks both.
func SigningBytes(ev Evidence) ([]byte, error) {
	ev.Security.Signature = ""
	return canonical.Canonicalize(ev)
}

// FormatTimestamp renders timestamps the single way evidence payloads carry
// them: RFC 3339, UTC, second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
