package evidence

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/hashchain"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/signing"
)

func signedEvidence(t *testing.T, mutate func(*Evidence)) ([]byte, string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	signer, err := signing.NewSigner(key)
	require.NoError(t, err)

	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	phone := "+15550100"
	ev := Evidence{
		EvidenceID: "evd_11111111-2222-3333-4444-555555555555",
		Timestamp:  FormatTimestamp(time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)),
		Document: DocumentInfo{
			DocumentID: "doc_1",
			Filename:   "a.pdf",
			Hash:       hashchain.DocumentHash("documents/u1/a.pdf", createdAt),
		},
		Analysis: AnalysisInfo{
			OCRConfidence: 0.91,
			Clauses: []domain.Clause{
				{ClauseID: "cls_1", Type: domain.ClausePenalty, Text: "Late fee of 5%", RiskLevel: domain.RiskHigh, Confidence: 0.8, Explanation: "penalty clause"},
			},
			AuthFlags:          domain.AuthFlags{QRPresent: true},
			AnalysisConfidence: 0.85,
		},
		Consent: ConsentInfo{
			PhoneNumber:          &phone,
			OTPVerified:          true,
			FingerprintHash:      strings.Repeat("f1", 32),
			VoiceConsentRecorded: false,
			Timestamp:            FormatTimestamp(time.Date(2025, 2, 1, 9, 59, 0, 0, time.UTC)),
		},
		Security: Security{
			Version:   Version,
			Algorithm: signing.Algorithm,
			PublicKey: signer.PublicKeyB64(),
		},
	}
	if mutate != nil {
		mutate(&ev)
	}

	unsigned, err := SigningBytes(ev)
	require.NoError(t, err)
	sig, err := signer.Sign(unsigned)
	require.NoError(t, err)
	ev.Security.Signature = sig

	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	return payload, sig, signer.PublicKeyB64()
}

func TestVerifyRoundTrip(t *testing.T) {
	payload, sig, pub := signedEvidence(t, nil)
	report := Verify(VerifyInput{EvidenceJSON: payload, Signature: sig, PublicKeyB64: pub})
	require.Equal(t, StatusVerified, report.OverallStatus)
	require.Equal(t, ConfidenceVerified, report.ConfidenceScore)
	require.Empty(t, report.Issues)
	for name, pass := range report.Checks {
		require.True(t, pass, "check %s", name)
	}
}

func TestVerifyUsesEmbeddedSignatureAndKey(t *testing.T) {
	payload, _, _ := signedEvidence(t, nil)
	report := Verify(VerifyInput{EvidenceJSON: payload})
	require.Equal(t, StatusVerified, report.OverallStatus)
}

func TestVerifyFieldInsertionOrderIrrelevant(t *testing.T) {
	payload, sig, pub := signedEvidence(t, nil)
	// Re-marshal through a map: key order and whitespace may change, but the
	// canonical signing bytes must not.
	var root map[string]any
	require.NoError(t, json.Unmarshal(payload, &root))
	reordered, err := json.MarshalIndent(root, "", "  ")
	require.NoError(t, err)

	report := Verify(VerifyInput{EvidenceJSON: reordered, Signature: sig, PublicKeyB64: pub})
	require.Equal(t, StatusVerified, report.OverallStatus)
}

func TestVerifyTamperedFingerprintNamed(t *testing.T) {
	payload, sig, pub := signedEvidence(t, nil)
	var root map[string]any
	require.NoError(t, json.Unmarshal(payload, &root))
	root["consent"].(map[string]any)["fingerprint_hash"] = nil
	tampered, err := json.Marshal(root)
	require.NoError(t, err)

	report := Verify(VerifyInput{EvidenceJSON: tampered, Signature: sig, PublicKeyB64: pub})
	require.Equal(t, StatusInvalid, report.OverallStatus)
	require.Equal(t, ConfidenceInvalid, report.ConfidenceScore)
	require.False(t, report.Checks[CheckSignature])
	require.False(t, report.Checks[CheckFingerprint])
	require.Contains(t, strings.Join(report.Issues, "\n"), "fingerprint_hash")
}

func TestVerifyTamperedClauseTextFailsSignature(t *testing.T) {
	payload, sig, pub := signedEvidence(t, nil)
	tampered := []byte(strings.Replace(string(payload), "Late fee of 5%", "Late fee of 50%", 1))
	report := Verify(VerifyInput{EvidenceJSON: tampered, Signature: sig, PublicKeyB64: pub})
	require.Equal(t, StatusInvalid, report.OverallStatus)
	require.False(t, report.Checks[CheckSignature])
}

func TestVerifyMalformedJSONReportedNotThrown(t *testing.T) {
	report := Verify(VerifyInput{EvidenceJSON: []byte("{not json")})
	require.Equal(t, StatusInvalid, report.OverallStatus)
	require.False(t, report.Checks[CheckStructure])
	require.NotEmpty(t, report.Issues)
}

func TestVerifyMissingSections(t *testing.T) {
	report := Verify(VerifyInput{EvidenceJSON: []byte(`{"evidence_id":"evd_1"}`)})
	require.Equal(t, StatusInvalid, report.OverallStatus)
	require.False(t, report.Checks[CheckStructure])
	joined := strings.Join(report.Issues, "\n")
	for _, field := range []string{"timestamp", "document", "analysis", "consent", "security"} {
		require.Contains(t, joined, field)
	}
}

func TestVerifyFutureTimestamp(t *testing.T) {
	payload, sig, pub := signedEvidence(t, func(ev *Evidence) {
		ev.Timestamp = FormatTimestamp(time.Now().Add(48 * time.Hour))
	})
	report := Verify(VerifyInput{EvidenceJSON: payload, Signature: sig, PublicKeyB64: pub})
	require.Equal(t, StatusInvalid, report.OverallStatus)
	require.False(t, report.Checks[CheckTimestamp])
	require.True(t, report.Checks[CheckSignature], "signature itself is still valid")
}

func TestVerifyShortDocumentHash(t *testing.T) {
	payload, sig, pub := signedEvidence(t, func(ev *Evidence) {
		ev.Document.Hash = "abc123"
	})
	report := Verify(VerifyInput{EvidenceJSON: payload, Signature: sig, PublicKeyB64: pub})
	require.Equal(t, StatusInvalid, report.OverallStatus)
	require.False(t, report.Checks[CheckDocumentHash])
}

func TestVerifyTamperMarker(t *testing.T) {
	payload, sig, pub := signedEvidence(t, func(ev *Evidence) {
		ev.Analysis.Clauses[0].Text = "__tamper__"
	})
	report := Verify(VerifyInput{EvidenceJSON: payload, Signature: sig, PublicKeyB64: pub})
	require.Equal(t, StatusInvalid, report.OverallStatus)
	require.False(t, report.Checks[CheckTamperMarkers])
}

func TestVerifyChainIntegrity(t *testing.T) {
	prior := []byte(`{"evidence_id":"evd_prior"}`)
	priorHash := hashchain.EvidenceHash(prior)

	payload, sig, pub := signedEvidence(t, func(ev *Evidence) {
		ev.Security.PreviousHash = &priorHash
	})

	report := Verify(VerifyInput{EvidenceJSON: payload, Signature: sig, PublicKeyB64: pub, Prior: prior})
	require.Equal(t, StatusVerified, report.OverallStatus)

	// Corrupting the prior record's persisted bytes breaks chain verification
	// even though this record's own signature still checks out.
	corrupted := append([]byte(nil), prior...)
	corrupted[len(corrupted)-2] = 'X'
	report = Verify(VerifyInput{EvidenceJSON: payload, Signature: sig, PublicKeyB64: pub, Prior: corrupted})
	require.Equal(t, StatusInvalid, report.OverallStatus)
	require.True(t, report.Checks[CheckSignature])
	require.False(t, report.Checks[CheckChainIntegrity])
}

func TestVerifyWrongPublicKey(t *testing.T) {
	payload, sig, _ := signedEvidence(t, nil)
	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	report := Verify(VerifyInput{EvidenceJSON: payload, Signature: sig, PublicKeyB64: signing.EncodePublicKey(&otherKey.PublicKey)})
	require.Equal(t, StatusInvalid, report.OverallStatus)
	require.False(t, report.Checks[CheckSignature])
}
