package tiers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

const aiSummarySystemPrompt = `You verify whether a brand or entity label is the correct code for a short survey answer.
You are given the answer text, the candidate label, and image URLs collected from a web search for the answer.
Respond with strict JSON only: {"label": "<entity name you believe the answer refers to>", "confidence": <0..1>, "reasoning": "<one sentence>"}.
Use an empty label when you cannot tell.`

// AISummaryProvider asks a chat model to reconcile the response text
// with the image URLs discovered by web search. It is skipped when no
// image URLs are available.
type AISummaryProvider struct {
	client openai.Client
	model  string
}

// NewAISummaryProvider builds the AI summarization tier around an
// injected OpenAI-compatible client.
func NewAISummaryProvider(client openai.Client, cfg config.AISummaryConfig) *AISummaryProvider {
	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &AISummaryProvider{client: client, model: model}
}

func (p *AISummaryProvider) Tier() evidence.TierID { return evidence.TierAISummary }

type aiSummaryAnswer struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Evaluate summarizes the search evidence into a single extracted
// entity name with a confidence.
func (p *AISummaryProvider) Evaluate(ctx context.Context, req *evidence.ValidationRequest) evidence.TierResult {
	if len(req.ImageURLs) == 0 {
		return skipped(p.Tier(), "no image URLs available")
	}

	return run(ctx, p.Tier(), func(ctx context.Context) (evidence.TierResult, error) {
		prompt := fmt.Sprintf(
			"Answer text: %q\nCandidate label: %q\nCategory: %q\nImage URLs:\n%s",
			req.QueryText(), req.Label, req.Category.Name,
			strings.Join(req.ImageURLs, "\n"),
		)

		var content string
		err := retryOnce(ctx, p.Tier(), func() error {
			completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: p.model,
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(aiSummarySystemPrompt),
					openai.UserMessage(prompt),
				},
			})
			if err != nil {
				return err
			}
			if len(completion.Choices) == 0 {
				return &evidence.TierParseError{Tier: p.Tier(), Err: fmt.Errorf("completion has no choices")}
			}
			content = completion.Choices[0].Message.Content
			return nil
		})
		if err != nil {
			return evidence.TierResult{}, err
		}

		answer, err := parseAISummaryAnswer(content)
		if err != nil {
			return evidence.TierResult{}, &evidence.TierParseError{Tier: p.Tier(), Err: err}
		}

		result := evidence.TierResult{
			Status:     evidence.StatusSucceeded,
			Label:      answer.Label,
			Confidence: evidence.Float64Ptr(clamp01(answer.Confidence)),
		}
		if answer.Label != "" {
			result.Matches = []evidence.Match{{
				Label:  answer.Label,
				Score:  clamp01(answer.Confidence),
				Source: answer.Reasoning,
			}}
			result.InAllowedSet = evidence.InAllowedSet(answer.Label, req.Category.AllowedLabels)
		}
		return result, nil
	})
}

// parseAISummaryAnswer tolerates code fences around the JSON body.
func parseAISummaryAnswer(content string) (aiSummaryAnswer, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var answer aiSummaryAnswer
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &answer); err != nil {
		return aiSummaryAnswer{}, fmt.Errorf("decoding model answer: %w", err)
	}
	return answer, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
