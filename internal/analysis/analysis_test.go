package analysis

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

const leaseText = `The tenant shall pay rent of $1200 monthly.
A late fee of 5% applies to overdue payments.
Either party may terminate with 30 days notice.
Disputes fall under the jurisdiction of the state courts.`

func TestHeuristicDeterministic(t *testing.T) {
	p := NewHeuristicProvider()
	a, err := p.Analyze(context.Background(), "doc_1", leaseText)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b, err := p.Analyze(context.Background(), "doc_1", leaseText)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(a.Clauses) != len(b.Clauses) {
		t.Fatalf("expected identical clause counts")
	}
	for i := range a.Clauses {
		if a.Clauses[i].ClauseID != b.Clauses[i].ClauseID || a.Clauses[i].Text != b.Clauses[i].Text {
			t.Fatalf("expected identical clauses at %d", i)
		}
	}
}

func TestHeuristicFindsExpectedClauseTypes(t *testing.T) {
	p := NewHeuristicProvider()
	result, err := p.Analyze(context.Background(), "doc_1", leaseText)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	found := map[domain.ClauseType]bool{}
	for _, c := range result.Clauses {
		found[c.Type] = true
	}
	for _, want := range []domain.ClauseType{domain.ClausePayment, domain.ClausePenalty, domain.ClauseTermination, domain.ClauseJurisdiction} {
		if !found[want] {
			t.Fatalf("expected a %s clause, got %v", want, found)
		}
	}
}

func TestHeuristicPenaltyIsHighRisk(t *testing.T) {
	p := NewHeuristicProvider()
	result, _ := p.Analyze(context.Background(), "doc_1", "A penalty of $500 applies for breach of this agreement.")
	if len(result.Clauses) == 0 {
		t.Fatalf("expected a clause")
	}
	if result.Clauses[0].Type != domain.ClausePenalty || result.Clauses[0].RiskLevel != domain.RiskHigh {
		t.Fatalf("expected high-risk penalty clause, got %+v", result.Clauses[0])
	}
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) Analyze(ctx context.Context, documentID, ocrText string) (domain.AnalysisResult, error) {
	return domain.AnalysisResult{}, errors.New("quota exceeded")
}

func TestChainFallsBackToHeuristic(t *testing.T) {
	chain := NewChain(slog.Default(), failingProvider{}, NewHeuristicProvider())
	result, err := chain.Analyze(context.Background(), "doc_1", leaseText)
	if err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	if len(result.Clauses) == 0 {
		t.Fatalf("expected clauses from heuristic fallback")
	}
}

func TestChainAllFail(t *testing.T) {
	chain := NewChain(slog.Default(), failingProvider{})
	if _, err := chain.Analyze(context.Background(), "doc_1", leaseText); err == nil {
		t.Fatalf("expected error when all providers fail")
	}
}

func TestNormalizeEnums(t *testing.T) {
	if normalizeClauseType("payment") != domain.ClausePayment {
		t.Fatalf("expected payment to pass through")
	}
	if normalizeClauseType("weird") != domain.ClauseOther {
		t.Fatalf("expected unknown type to map to other")
	}
	if normalizeRiskLevel("bogus") != domain.RiskMedium {
		t.Fatalf("expected unknown risk to map to medium")
	}
}
