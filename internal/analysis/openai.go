package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

const maxTokens = 2048

const systemPrompt = `You are a legal document analyst. Given the OCR text of a legal document,
extract its clauses. Respond with a JSON object:
{"clauses":[{"type":"payment|penalty|liability|property|termination|jurisdiction|other",
"text":"...","risk_level":"low|medium|high","confidence":0.0,"explanation":"..."}],
"analysis_confidence":0.0}`

// OpenAIProvider is the primary clause extractor.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Analyze(ctx context.Context, documentID, ocrText string) (domain.AnalysisResult, error) {
	req := openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: ocrText},
		},
	}
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("empty completion response")
	}

	var parsed struct {
		Clauses []struct {
			Type        string  `json:"type"`
			Text        string  `json:"text"`
			RiskLevel   string  `json:"risk_level"`
			Confidence  float64 `json:"confidence"`
			Explanation string  `json:"explanation"`
		} `json:"clauses"`
		AnalysisConfidence float64 `json:"analysis_confidence"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("parse completion: %w", err)
	}

	result := domain.AnalysisResult{
		AnalysisID:         "ana_" + uuid.NewString(),
		DocumentID:         documentID,
		OCRText:            ocrText,
		OCRConfidence:      1.0,
		AnalysisConfidence: parsed.AnalysisConfidence,
		CreatedAt:          time.Now().UTC(),
	}
	for _, c := range parsed.Clauses {
		result.Clauses = append(result.Clauses, domain.Clause{
			ClauseID:    "cls_" + uuid.NewString(),
			Type:        normalizeClauseType(c.Type),
			Text:        c.Text,
			RiskLevel:   normalizeRiskLevel(c.RiskLevel),
			Confidence:  c.Confidence,
			Explanation: c.Explanation,
		})
	}
	return result, nil
}

func normalizeClauseType(s string) domain.ClauseType {
	switch domain.ClauseType(s) {
	case domain.ClausePayment, domain.ClausePenalty, domain.ClauseLiability,
		domain.ClauseProperty, domain.ClauseTermination, domain.ClauseJurisdiction:
		return domain.ClauseType(s)
	default:
		return domain.ClauseOther
	}
}

func normalizeRiskLevel(s string) domain.RiskLevel {
	switch domain.RiskLevel(s) {
	case domain.RiskLow, domain.RiskHigh:
		return domain.RiskLevel(s)
	default:
		return domain.RiskMedium
	}
}
