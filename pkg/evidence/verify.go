package evidence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/canonical"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/hashchain"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/signing"
)

const (
	StatusVerified = "VERIFIED"
	StatusInvalid  = "INVALID"

	ConfidenceVerified = 95
	ConfidenceInvalid  = 15
)

// Check names, reported individually in every VerificationReport.
const (
	CheckStructure      = "structural_completeness"
	CheckSignature      = "signature"
	CheckTimestamp      = "timestamp"
	CheckFingerprint    = "fingerprint_hash"
	CheckDocumentHash   = "document_hash_format"
	CheckTamperMarkers  = "tamper_markers"
	CheckChainIntegrity = "chain_integrity"
)

// tamper marker substrings scanned for in the serialized payload.
// Defense-in-depth only: the signature check is the real tamper detector.
var tamperMarkers = []string{"TAMPERED", "__tamper__"}

type VerificationReport struct {
	OverallStatus   string          `json:"overall_status"`
	ConfidenceScore int             `json:"confidence_score"`
	Checks          map[string]bool `json:"checks"`
	Issues          []string        `json:"issues"`
	Summary         Summary         `json:"summary"`
	Recommendations []string        `json:"recommendations"`
}

type Summary struct {
	KeyFindings []string `json:"key_findings"`
}

// VerifyInput carries everything the verifier may be given. Signature and
// PublicKeyB64 override the values embedded in the payload when set; Prior is
// the stored bytes of the previous record in the lineage, when the verifier
// has them.
type VerifyInput struct {
	EvidenceJSON []byte
	Signature    string
	PublicKeyB64 string
	Prior        []byte
}

// Verify re-derives the validity of a stored or transmitted evidence payload.
// Pure function over its inputs, no shared state, never returns an error:
// malformed input is reported as INVALID with descriptive issues.
func Verify(in VerifyInput) VerificationReport {
	checks := map[string]bool{
		CheckStructure:      true,
		CheckSignature:      false,
		CheckTimestamp:      true,
		CheckFingerprint:    true,
		CheckDocumentHash:   true,
		CheckTamperMarkers:  true,
		CheckChainIntegrity: true,
	}
	var issues []string

	var rawRoot map[string]any
	var ev Evidence
	if err := json.Unmarshal(in.EvidenceJSON, &rawRoot); err != nil || json.Unmarshal(in.EvidenceJSON, &ev) != nil {
		checks[CheckStructure] = false
		issues = append(issues, "evidence payload is not valid JSON")
		return buildReport(checks, issues)
	}

	for _, field := range []string{"evidence_id", "timestamp", "document", "analysis", "consent", "security"} {
		if _, ok := rawRoot[field]; !ok {
			checks[CheckStructure] = false
			issues = append(issues, "missing required field: "+field)
		}
	}

	sigB64 := strings.TrimSpace(in.Signature)
	if sigB64 == "" {
		sigB64 = strings.TrimSpace(ev.Security.Signature)
	}
	pubB64 := strings.TrimSpace(in.PublicKeyB64)
	if pubB64 == "" {
		pubB64 = strings.TrimSpace(ev.Security.PublicKey)
	}

	switch {
	case sigB64 == "":
		issues = append(issues, "signature missing")
	case !signing.WellFormedSignature(sigB64):
		issues = append(issues, "signature is not a well-formed ECDSA signature")
	case pubB64 == "":
		issues = append(issues, "no public key available for signature verification")
	default:
		ok, err := verifySignature(rawRoot, sigB64, pubB64)
		if err != nil {
			issues = append(issues, "signature verification failed: "+err.Error())
		} else if !ok {
			issues = append(issues, "signature does not verify against canonical payload")
		} else {
			checks[CheckSignature] = true
		}
	}

	ts, err := time.Parse(time.RFC3339, ev.Timestamp)
	if err != nil {
		checks[CheckTimestamp] = false
		issues = append(issues, "timestamp is not parseable RFC 3339: "+ev.Timestamp)
	} else if ts.After(time.Now().Add(time.Minute)) {
		checks[CheckTimestamp] = false
		issues = append(issues, "timestamp is in the future: "+ev.Timestamp)
	}

	if strings.TrimSpace(ev.Consent.FingerprintHash) == "" {
		checks[CheckFingerprint] = false
		issues = append(issues, "consent.fingerprint_hash is missing")
	}

	if !isHex64(ev.Document.Hash) {
		checks[CheckDocumentHash] = false
		issues = append(issues, fmt.Sprintf("document.hash has unexpected length %d, want 64 hex chars", len(ev.Document.Hash)))
	}

	payloadText := string(in.EvidenceJSON)
	for _, marker := range tamperMarkers {
		if strings.Contains(payloadText, marker) {
			checks[CheckTamperMarkers] = false
			issues = append(issues, "tamper marker found in payload: "+marker)
		}
	}

	if ev.Security.PreviousHash != nil && len(in.Prior) > 0 {
		priorHash := hashchain.EvidenceHash(in.Prior)
		if priorHash != *ev.Security.PreviousHash {
			checks[CheckChainIntegrity] = false
			issues = append(issues, "previous_hash does not match recomputed hash of prior record")
		}
	}

	return buildReport(checks, issues)
}

// verifySignature recomputes the signing bytes from the raw payload with
// security.signature cleared, then checks the signature over them.
func verifySignature(rawRoot map[string]any, sigB64, pubB64 string) (bool, error) {
	unsigned := make(map[string]any, len(rawRoot))
	for k, v := range rawRoot {
		unsigned[k] = v
	}
	if sec, ok := rawRoot["security"].(map[string]any); ok {
		secCopy := make(map[string]any, len(sec))
		for k, v := range sec {
			secCopy[k] = v
		}
		secCopy["signature"] = ""
		unsigned["security"] = secCopy
	}
	canonicalBytes, err := canonical.Canonicalize(unsigned)
	if err != nil {
		return false, err
	}
	return signing.Verify(canonicalBytes, sigB64, pubB64)
}

func buildReport(checks map[string]bool, issues []string) VerificationReport {
	verified := checks[CheckSignature]
	for name, pass := range checks {
		if name != CheckSignature && !pass {
			verified = false
		}
	}
	if issues == nil {
		issues = []string{}
	}

	report := VerificationReport{
		Checks: checks,
		Issues: issues,
	}
	if verified {
		report.OverallStatus = StatusVerified
		report.ConfidenceScore = ConfidenceVerified
		report.Summary.KeyFindings = []string{
			"signature verifies against canonical payload",
			"evidence structure and chain linkage are intact",
		}
		report.Recommendations = []string{"no action required"}
		return report
	}

	report.OverallStatus = StatusInvalid
	report.ConfidenceScore = ConfidenceInvalid
	var failed []string
	for _, name := range []string{CheckStructure, CheckSignature, CheckTimestamp, CheckFingerprint, CheckDocumentHash, CheckTamperMarkers, CheckChainIntegrity} {
		if !checks[name] {
			failed = append(failed, name)
		}
	}
	report.Summary.KeyFindings = append([]string{"failed checks: " + strings.Join(failed, ", ")}, issues...)
	report.Recommendations = []string{
		"treat this evidence record as unreliable",
		"re-request the original record from the system of record and re-verify",
	}
	return report
}

func isHex64(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
