package store

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// --- documents ---

func (s *Store) CreateDocument(ctx context.Context, d domain.Document) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO documents(document_id,filename,storage_path,status,created_at) VALUES($1,$2,$3,$4,$5)`,
		d.DocumentID, d.Filename, d.StoragePath, d.Status, d.CreatedAt)
	return err
}

func (s *Store) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	var d domain.Document
	err := s.DB.QueryRow(ctx, `SELECT document_id,filename,storage_path,status,created_at FROM documents WHERE document_id=$1`, id).
		Scan(&d.DocumentID, &d.Filename, &d.StoragePath, &d.Status, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, &domain.NotFoundError{Kind: "document", ID: id}
	}
	return d, err
}

func (s *Store) SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	tag, err := s.DB.Exec(ctx, `UPDATE documents SET status=$2 WHERE document_id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "document", ID: id}
	}
	return nil
}

// --- analysis results ---

func (s *Store) CreateAnalysis(ctx context.Context, a domain.AnalysisResult) error {
	clauses, err := json.Marshal(a.Clauses)
	if err != nil {
		return err
	}
	flags, err := json.Marshal(a.AuthFlags)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `INSERT INTO analysis_results(analysis_id,document_id,ocr_text,ocr_confidence,clauses,auth_flags,analysis_confidence,created_at)
VALUES($1,$2,$3,$4,$5::jsonb,$6::jsonb,$7,$8)`,
		a.AnalysisID, a.DocumentID, a.OCRText, a.OCRConfidence, string(clauses), string(flags), a.AnalysisConfidence, a.CreatedAt)
	return err
}

func (s *Store) GetAnalysis(ctx context.Context, id string) (domain.AnalysisResult, error) {
	var a domain.AnalysisResult
	var clauses, flags []byte
	err := s.DB.QueryRow(ctx, `SELECT analysis_id,document_id,ocr_text,ocr_confidence,clauses,auth_flags,analysis_confidence,created_at FROM analysis_results WHERE analysis_id=$1`, id).
		Scan(&a.AnalysisID, &a.DocumentID, &a.OCRText, &a.OCRConfidence, &clauses, &flags, &a.AnalysisConfidence, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, &domain.NotFoundError{Kind: "analysis", ID: id}
	}
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(clauses, &a.Clauses); err != nil {
		return a, err
	}
	if err := json.Unmarshal(flags, &a.AuthFlags); err != nil {
		return a, err
	}
	return a, nil
}

// --- OTP codes ---

func (s *Store) SeedOTP(ctx context.Context, analysisID, codeHash string) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO otp_codes(analysis_id,code_hash)
VALUES($1,$2)
ON CONFLICT (analysis_id) DO UPDATE SET code_hash=$2, created_at=now()`, analysisID, codeHash)
	return err
}

// CheckOTP reports whether the submitted code matches the stored hash for the
// analysis. OTP delivery itself happens outside this system.
func (s *Store) CheckOTP(ctx context.Context, analysisID, code string) (bool, error) {
	var storedHash string
	err := s.DB.QueryRow(ctx, `SELECT code_hash FROM otp_codes WHERE analysis_id=$1`, analysisID).Scan(&storedHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	submitted := HashOTP(code)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(submitted)) == 1, nil
}

// --- consent records ---

func (s *Store) CreateConsent(ctx context.Context, c domain.ConsentRecord) error {
	var loc *string
	if c.Location != nil {
		b, err := json.Marshal(c.Location)
		if err != nil {
			return err
		}
		v := string(b)
		loc = &v
	}
	_, err := s.DB.Exec(ctx, `INSERT INTO consent_records(consent_id,analysis_id,phone_number,otp_verified,fingerprint_hash,voice_file_path,location,created_at)
VALUES($1,$2,$3,$4,$5,$6,$7::jsonb,$8)`,
		c.ConsentID, c.AnalysisID, c.PhoneNumber, c.OTPVerified, c.FingerprintHash, c.VoiceFilePath, loc, c.Timestamp)
	if isUniqueViolation(err) {
		return &domain.ConflictError{Reason: "consent record already exists: " + c.ConsentID}
	}
	return err
}

func (s *Store) GetConsent(ctx context.Context, id string) (domain.ConsentRecord, error) {
	var c domain.ConsentRecord
	var loc []byte
	err := s.DB.QueryRow(ctx, `SELECT consent_id,analysis_id,phone_number,otp_verified,fingerprint_hash,voice_file_path,location,created_at FROM consent_records WHERE consent_id=$1`, id).
		Scan(&c.ConsentID, &c.AnalysisID, &c.PhoneNumber, &c.OTPVerified, &c.FingerprintHash, &c.VoiceFilePath, &loc, &c.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, &domain.NotFoundError{Kind: "consent", ID: id}
	}
	if err != nil {
		return c, err
	}
	if len(loc) > 0 {
		if err := json.Unmarshal(loc, &c.Location); err != nil {
			return c, err
		}
	}
	return c, nil
}

// --- evidence records ---

// CreateEvidence persists the signed record. The UNIQUE constraint on
// consent_id serializes concurrent duplicate submissions: the loser gets a
// ConflictError, never a silent overwrite. evidence_json is stored as the
// exact signed bytes (bytea), never re-serialized.
func (s *Store) CreateEvidence(ctx context.Context, rec domain.EvidenceRecord) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO evidence_records(evidence_id,consent_id,document_id,evidence_json,document_hash,evidence_hash,signature,public_key,previous_hash,encrypted,encryption_metadata,created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		rec.EvidenceID, rec.ConsentID, rec.DocumentID, rec.EvidenceJSON, rec.DocumentHash, rec.EvidenceHash,
		rec.Signature, rec.PublicKey, rec.PreviousHash, rec.Encrypted, rec.EncryptionMetadata, rec.CreatedAt)
	if isUniqueViolation(err) {
		return &domain.ConflictError{Reason: "evidence record already exists for consent " + rec.ConsentID}
	}
	return err
}

func (s *Store) GetEvidence(ctx context.Context, id string) (domain.EvidenceRecord, error) {
	return s.getEvidence(ctx, `WHERE evidence_id=$1`, id)
}

func (s *Store) GetEvidenceByConsent(ctx context.Context, consentID string) (domain.EvidenceRecord, error) {
	return s.getEvidence(ctx, `WHERE consent_id=$1`, consentID)
}

func (s *Store) getEvidence(ctx context.Context, where, arg string) (domain.EvidenceRecord, error) {
	var rec domain.EvidenceRecord
	err := s.DB.QueryRow(ctx, `SELECT evidence_id,consent_id,document_id,evidence_json,document_hash,evidence_hash,signature,public_key,previous_hash,encrypted,encryption_metadata,blockchain_tx_hash,ipfs_hash,created_at
FROM evidence_records `+where, arg).
		Scan(&rec.EvidenceID, &rec.ConsentID, &rec.DocumentID, &rec.EvidenceJSON, &rec.DocumentHash, &rec.EvidenceHash,
			&rec.Signature, &rec.PublicKey, &rec.PreviousHash, &rec.Encrypted, &rec.EncryptionMetadata,
			&rec.BlockchainTxHash, &rec.IPFSHash, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, &domain.NotFoundError{Kind: "evidence", ID: arg}
	}
	return rec, err
}

// LatestEvidenceHash implements hashchain.HeadLookup: the newest record for
// the document lineage, or ok=false for an empty lineage.
func (s *Store) LatestEvidenceHash(ctx context.Context, documentID string) (string, bool, error) {
	var h string
	err := s.DB.QueryRow(ctx, `SELECT evidence_hash FROM evidence_records WHERE document_id=$1 ORDER BY created_at DESC, evidence_id DESC LIMIT 1`, documentID).Scan(&h)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return h, true, nil
}

func (s *Store) ListEvidenceForDocument(ctx context.Context, documentID string) ([]domain.EvidenceRecord, error) {
	rows, err := s.DB.Query(ctx, `SELECT evidence_id,consent_id,document_id,evidence_json,document_hash,evidence_hash,signature,public_key,previous_hash,encrypted,encryption_metadata,blockchain_tx_hash,ipfs_hash,created_at
FROM evidence_records WHERE document_id=$1 ORDER BY created_at ASC, evidence_id ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EvidenceRecord
	for rows.Next() {
		var rec domain.EvidenceRecord
		if err := rows.Scan(&rec.EvidenceID, &rec.ConsentID, &rec.DocumentID, &rec.EvidenceJSON, &rec.DocumentHash, &rec.EvidenceHash,
			&rec.Signature, &rec.PublicKey, &rec.PreviousHash, &rec.Encrypted, &rec.EncryptionMetadata,
			&rec.BlockchainTxHash, &rec.IPFSHash, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateAnchors backfills anchor handles on an existing record. Only the two
// anchor columns move; the evidence bytes stay untouched.
func (s *Store) UpdateAnchors(ctx context.Context, evidenceID string, txHash, ipfsHash *string) error {
	_, err := s.DB.Exec(ctx, `UPDATE evidence_records SET
blockchain_tx_hash=COALESCE($2, blockchain_tx_hash),
ipfs_hash=COALESCE($3, ipfs_hash)
WHERE evidence_id=$1`, evidenceID, txHash, ipfsHash)
	return err
}

// PendingAnchorRecords lists records still missing one or both anchor
// handles, for out-of-band backfill.
func (s *Store) PendingAnchorRecords(ctx context.Context, limit int) ([]domain.EvidenceRecord, error) {
	rows, err := s.DB.Query(ctx, `SELECT evidence_id,consent_id,document_id,evidence_json,document_hash,evidence_hash,signature,public_key,previous_hash,encrypted,encryption_metadata,blockchain_tx_hash,ipfs_hash,created_at
FROM evidence_records WHERE blockchain_tx_hash IS NULL OR ipfs_hash IS NULL ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EvidenceRecord
	for rows.Next() {
		var rec domain.EvidenceRecord
		if err := rows.Scan(&rec.EvidenceID, &rec.ConsentID, &rec.DocumentID, &rec.EvidenceJSON, &rec.DocumentHash, &rec.EvidenceHash,
			&rec.Signature, &rec.PublicKey, &rec.PreviousHash, &rec.Encrypted, &rec.EncryptionMetadata,
			&rec.BlockchainTxHash, &rec.IPFSHash, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
