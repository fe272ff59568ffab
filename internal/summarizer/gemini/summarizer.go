// Package gemini generates summaries and tags with the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
	"github.com/hmatsu/knowledge-keeper/internal/metrics"
)

// FallbackSummary is returned whenever the model call or response parsing
// fails. The save still succeeds with this degraded record.
const FallbackSummary = "要約を生成できませんでした。"

const systemPrompt = "あなたは日本語で記事を要約するアシスタントです。" +
	"記事に書かれている具体的な技術・手法・結論・数値などの中身を要約してください。" +
	"「〜についての記事です」のような概要説明ではなく、読者が記事を読まなくても要点がわかるような要約にしてください。" +
	`応答は必ず {"summary": "...", "tags": ["..."]} 形式のJSONのみで返してください。`

// Config controls the Gemini summarizer.
type Config struct {
	APIKey string
	Model  string
}

type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer implements knowledge.Summarizer on the Gemini API. Summarize
// never returns an error: failures degrade to FallbackSummary with no tags.
type Summarizer struct {
	gen    generator
	logger *zap.Logger
}

// New creates a Gemini-backed Summarizer.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai.api_key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	generative := client.GenerativeModel(model)
	generative.ResponseMIMEType = "application/json"
	generative.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	return &Summarizer{
		gen:    &genaiGenerator{model: generative},
		logger: logger.With(zap.String("component", "gemini_summarizer")),
	}, nil
}

type summaryPayload struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Summarize asks the model for a Japanese summary plus up to five tags.
func (s *Summarizer) Summarize(ctx context.Context, content string) knowledge.Summary {
	prompt := "以下の記事の具体的な内容を日本語で要約し、関連タグを最大5つ生成してください。\n\n" + content

	raw, err := s.gen.generate(ctx, prompt)
	if err != nil {
		s.logger.Error("model call failed", zap.Error(err))
		metrics.ObserveSummaryFallback()
		return knowledge.Summary{Summary: FallbackSummary, Tags: []string{}}
	}

	var parsed summaryPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		s.logger.Error("failed to parse model response", zap.Error(err))
		metrics.ObserveSummaryFallback()
		return knowledge.Summary{Summary: FallbackSummary, Tags: []string{}}
	}

	summary := parsed.Summary
	if summary == "" {
		metrics.ObserveSummaryFallback()
		summary = FallbackSummary
	}
	tags := parsed.Tags
	if tags == nil {
		tags = []string{}
	}
	if len(tags) > knowledge.MaxTags {
		tags = tags[:knowledge.MaxTags]
	}
	return knowledge.Summary{Summary: summary, Tags: tags}
}

// stripFences removes a Markdown code fence the model sometimes wraps its
// JSON in despite the response MIME type.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

type genaiGenerator struct {
	model *genai.GenerativeModel
}

func (g *genaiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("model returned no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("model returned no text parts")
	}
	return sb.String(), nil
}
