package tiers

import (
	"context"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

func TestAISummarySkipsWithoutImages(t *testing.T) {
	provider := NewAISummaryProvider(openai.NewClient(), config.AISummaryConfig{})

	result := provider.Evaluate(context.Background(), webSearchRequest())

	assert.Equal(t, evidence.TierAISummary, result.Tier)
	assert.Equal(t, evidence.StatusSkipped, result.Status)
	assert.Contains(t, result.Error, "no image URLs")
}

func TestParseAISummaryAnswer(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    aiSummaryAnswer
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"label":"Nike","confidence":0.8,"reasoning":"swoosh visible"}`,
			want:    aiSummaryAnswer{Label: "Nike", Confidence: 0.8, Reasoning: "swoosh visible"},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"label\":\"Nike\",\"confidence\":0.75,\"reasoning\":\"logo match\"}\n```",
			want:    aiSummaryAnswer{Label: "Nike", Confidence: 0.75, Reasoning: "logo match"},
		},
		{
			name:    "bare fence",
			content: "```\n{\"label\":\"Adidas\",\"confidence\":0.6,\"reasoning\":\"stripes\"}\n```",
			want:    aiSummaryAnswer{Label: "Adidas", Confidence: 0.6, Reasoning: "stripes"},
		},
		{
			name:    "not json",
			content: "I cannot determine the brand.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAISummaryAnswer(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.2))
	assert.Equal(t, 0.3, clamp01(0.3))
	assert.Equal(t, 1.0, clamp01(1.7))
}
