package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

// HeuristicProvider is the deterministic fallback: keyword scan over
// sentences, no external calls, never fails. Identical input always yields an
// identical result (clause IDs included), so reprocessing a document is
// reproducible.
type HeuristicProvider struct{}

func NewHeuristicProvider() *HeuristicProvider { return &HeuristicProvider{} }

func (p *HeuristicProvider) Name() string { return "heuristic" }

var clauseKeywords = []struct {
	clauseType domain.ClauseType
	risk       domain.RiskLevel
	keywords   []string
}{
	{domain.ClausePenalty, domain.RiskHigh, []string{"penalty", "fine", "liquidated damages", "late fee"}},
	{domain.ClauseLiability, domain.RiskHigh, []string{"liable", "liability", "indemnif", "hold harmless"}},
	{domain.ClausePayment, domain.RiskMedium, []string{"payment", "pay", "rent", "fee", "deposit"}},
	{domain.ClauseTermination, domain.RiskMedium, []string{"terminat", "cancel", "expiry", "expiration"}},
	{domain.ClauseProperty, domain.RiskMedium, []string{"property", "premises", "title", "ownership"}},
	{domain.ClauseJurisdiction, domain.RiskLow, []string{"jurisdiction", "governing law", "court", "arbitration"}},
}

func (p *HeuristicProvider) Analyze(ctx context.Context, documentID, ocrText string) (domain.AnalysisResult, error) {
	result := domain.AnalysisResult{
		AnalysisID:         "ana_" + contentID(documentID, ocrText),
		DocumentID:         documentID,
		OCRText:            ocrText,
		OCRConfidence:      0.75,
		AnalysisConfidence: 0.5,
		CreatedAt:          time.Now().UTC(),
	}

	for _, sentence := range splitSentences(ocrText) {
		lower := strings.ToLower(sentence)
		for _, entry := range clauseKeywords {
			if !containsAny(lower, entry.keywords) {
				continue
			}
			result.Clauses = append(result.Clauses, domain.Clause{
				ClauseID:    "cls_" + contentID(documentID, sentence),
				Type:        entry.clauseType,
				Text:        sentence,
				RiskLevel:   entry.risk,
				Confidence:  0.6,
				Explanation: "keyword match for " + string(entry.clauseType) + " clause",
			})
			break
		}
	}
	return result, nil
}

func contentID(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:8])
}

func splitSentences(text string) []string {
	var out []string
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == ';' || r == '\n'
	}) {
		s := strings.TrimSpace(raw)
		if len(s) >= 10 {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
