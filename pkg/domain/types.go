package domain

import "time"

type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

type Document struct {
	DocumentID  string         `json:"document_id"`
	Filename    string         `json:"filename"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

type ClauseType string

const (
	ClausePayment      ClauseType = "payment"
	ClausePenalty      ClauseType = "penalty"
	ClauseLiability    ClauseType = "liability"
	ClauseProperty     ClauseType = "property"
	ClauseTermination  ClauseType = "termination"
	ClauseJurisdiction ClauseType = "jurisdiction"
	ClauseOther        ClauseType = "other"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type Clause struct {
	ClauseID       string     `json:"clause_id"`
	Type           ClauseType `json:"type"`
	Text           string     `json:"text"`
	RiskLevel      RiskLevel  `json:"risk_level"`
	Confidence     float64    `json:"confidence"`
	Explanation    string     `json:"explanation"`
	LegalReference *string    `json:"legal_reference,omitempty"`
	Recommendation *string    `json:"recommendation,omitempty"`
	Missing        bool       `json:"missing"`
}

// AuthFlags carries document-authenticity signals reported by the analysis
// provider. The evidence core copies them verbatim; it never recomputes them.
type AuthFlags struct {
	QRPresent        bool `json:"qr_present"`
	BarcodePresent   bool `json:"barcode_present"`
	QRMismatch       bool `json:"qr_mismatch"`
	FormatSuspicious bool `json:"format_suspicious"`
}

type AnalysisResult struct {
	AnalysisID         string    `json:"analysis_id"`
	DocumentID         string    `json:"document_id"`
	OCRText            string    `json:"ocr_text"`
	OCRConfidence      float64   `json:"ocr_confidence"`
	Clauses            []Clause  `json:"clauses"`
	AuthFlags          AuthFlags `json:"auth_flags"`
	AnalysisConfidence float64   `json:"analysis_confidence"`
	CreatedAt          time.Time `json:"created_at"`
}

type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// ConsentRecord is immutable after creation. Multiple consents may exist per
// analysis; at most one evidence record may exist per consent.
type ConsentRecord struct {
	ConsentID       string    `json:"consent_id"`
	AnalysisID      string    `json:"analysis_id"`
	PhoneNumber     *string   `json:"phone_number,omitempty"`
	OTPVerified     bool      `json:"otp_verified"`
	FingerprintHash string    `json:"fingerprint_hash"`
	VoiceFilePath   *string   `json:"voice_file_path,omitempty"`
	Location        *Location `json:"location,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// EvidenceRecord is the persisted row. evidence_json holds the exact signed
// bytes; re-serializing it through a different encoder breaks re-verification,
// so it is stored and returned as an opaque blob. Anchor handles may be
// backfilled after creation; everything else is read-only.
type EvidenceRecord struct {
	EvidenceID         string    `json:"evidence_id"`
	ConsentID          string    `json:"consent_id"`
	EvidenceJSON       []byte    `json:"evidence_json"`
	DocumentID         string    `json:"document_id"`
	DocumentHash       string    `json:"document_hash"`
	EvidenceHash       string    `json:"evidence_hash"`
	Signature          string    `json:"signature"`
	PublicKey          string    `json:"public_key"`
	PreviousHash       *string   `json:"previous_hash,omitempty"`
	Encrypted          bool      `json:"encrypted"`
	EncryptionMetadata *string   `json:"encryption_metadata,omitempty"`
	BlockchainTxHash   *string   `json:"blockchain_tx_hash,omitempty"`
	IPFSHash           *string   `json:"ipfs_hash,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
