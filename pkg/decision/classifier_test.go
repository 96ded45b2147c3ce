/*
Copyright 2025 Coding UI Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	return NewClassifier(&cfg.Engine)
}

func succeeded(tier evidence.TierID, label string, confidence float64) evidence.TierResult {
	return evidence.TierResult{
		Tier:       tier,
		Status:     evidence.StatusSucceeded,
		Label:      label,
		Confidence: evidence.Float64Ptr(confidence),
	}
}

func TestClassify(t *testing.T) {
	classifier := newTestClassifier(t)

	tests := []struct {
		name        string
		agg         evidence.AggregatedEvidence
		wantPattern evidence.Pattern
		wantRule    string
	}{
		{
			name: "no evidence at all",
			agg: evidence.AggregatedEvidence{
				Results: []evidence.TierResult{
					{Tier: evidence.TierWebSearch, Status: evidence.StatusFailed},
					{Tier: evidence.TierVision, Status: evidence.StatusTimedOut},
				},
				Silent: []evidence.TierID{evidence.TierWebSearch, evidence.TierVision},
			},
			wantPattern: evidence.PatternUnclearResult,
			wantRule:    "no_evidence",
		},
		{
			name: "high trust confidently proposes another label",
			agg: evidence.AggregatedEvidence{
				Results: []evidence.TierResult{
					succeeded(evidence.TierVision, "Adidas", 0.95),
					succeeded(evidence.TierEmbedding, "Puma", 0.5),
				},
				Confidence:  0.8,
				Disagreeing: []evidence.TierID{evidence.TierVision, evidence.TierEmbedding},
			},
			wantPattern: evidence.PatternCategoryError,
			wantRule:    "confident_contradiction",
		},
		{
			name: "high trust tiers contradict each other",
			agg: evidence.AggregatedEvidence{
				Results: []evidence.TierResult{
					succeeded(evidence.TierVision, "Adidas", 0.9),
					succeeded(evidence.TierKnowledgeGraph, "Nike", 0.9),
				},
				Confidence:  0.88,
				Agreeing:    []evidence.TierID{evidence.TierKnowledgeGraph},
				Disagreeing: []evidence.TierID{evidence.TierVision},
			},
			wantPattern: evidence.PatternAmbiguousDescriptor,
			wantRule:    "contested_high_trust",
		},
		{
			name: "low trust tiers split evenly",
			agg: evidence.AggregatedEvidence{
				Results: []evidence.TierResult{
					succeeded(evidence.TierEmbedding, "Nike", 0.6),
					succeeded(evidence.TierVectorSimilarity, "Adidas", 0.6),
				},
				Confidence:  0.6,
				Agreeing:    []evidence.TierID{evidence.TierEmbedding},
				Disagreeing: []evidence.TierID{evidence.TierVectorSimilarity},
			},
			wantPattern: evidence.PatternAmbiguousDescriptor,
			wantRule:    "split_evidence",
		},
		{
			name: "two tiers corroborate with high confidence",
			agg: evidence.AggregatedEvidence{
				Results: []evidence.TierResult{
					succeeded(evidence.TierVision, "Nike", 1.0),
					succeeded(evidence.TierKnowledgeGraph, "Nike", 0.9),
				},
				Confidence: 0.94,
				Agreeing: []evidence.TierID{
					evidence.TierVision, evidence.TierKnowledgeGraph,
				},
			},
			wantPattern: evidence.PatternCategoryValidated,
			wantRule:    "corroborated_agreement",
		},
		{
			name: "single uncontradicted knowledge graph hit",
			agg: evidence.AggregatedEvidence{
				Results: []evidence.TierResult{
					succeeded(evidence.TierKnowledgeGraph, "Nike", 0.96),
				},
				Confidence: 0.96,
				Agreeing:   []evidence.TierID{evidence.TierKnowledgeGraph},
			},
			wantPattern: evidence.PatternClearMatch,
			wantRule:    "sole_high_trust_match",
		},
		{
			name: "uncontested low trust agreement above the middle band",
			agg: evidence.AggregatedEvidence{
				Results: []evidence.TierResult{
					succeeded(evidence.TierEmbedding, "Nike", 0.75),
				},
				Confidence: 0.75,
				Agreeing:   []evidence.TierID{evidence.TierEmbedding},
			},
			wantPattern: evidence.PatternClearMatch,
			wantRule:    "uncontested_agreement",
		},
		{
			name: "single weak agreement lands in the middle band",
			agg: evidence.AggregatedEvidence{
				Results: []evidence.TierResult{
					succeeded(evidence.TierEmbedding, "Nike", 0.6),
				},
				Confidence: 0.6,
				Agreeing:   []evidence.TierID{evidence.TierEmbedding},
			},
			wantPattern: evidence.PatternAmbiguousDescriptor,
			wantRule:    "middle_band",
		},
		{
			name: "agreement just above the low threshold",
			agg: evidence.AggregatedEvidence{
				Results: []evidence.TierResult{
					succeeded(evidence.TierEmbedding, "Nike", 0.42),
				},
				Confidence: 0.42,
				Agreeing:   []evidence.TierID{evidence.TierEmbedding},
			},
			wantPattern: evidence.PatternAmbiguousDescriptor,
			wantRule:    "faint_agreement",
		},
		{
			name: "weak support below every threshold",
			agg: evidence.AggregatedEvidence{
				Results: []evidence.TierResult{
					succeeded(evidence.TierEmbedding, "Nike", 0.3),
				},
				Confidence: 0.3,
				Agreeing:   []evidence.TierID{evidence.TierEmbedding},
			},
			wantPattern: evidence.PatternUnclearResult,
			wantRule:    "weak_or_no_support",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern, rule := classifier.Classify("Nike", &tt.agg)
			assert.Equal(t, tt.wantPattern, pattern)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}

// A near-tie suppressed by the aggregator leaves the Disagreeing list
// empty, but a confident high-trust contradiction must still block
// validation.
func TestClassifySuppressedTieStillContested(t *testing.T) {
	classifier := newTestClassifier(t)

	agg := evidence.AggregatedEvidence{
		Results: []evidence.TierResult{
			succeeded(evidence.TierVision, "Nike", 0.9),
			succeeded(evidence.TierKnowledgeGraph, "Adidas", 0.9),
		},
		Confidence: 0.9,
		Agreeing:   []evidence.TierID{evidence.TierVision},
	}

	pattern, rule := classifier.Classify("Nike", &agg)
	assert.Equal(t, evidence.PatternAmbiguousDescriptor, pattern)
	assert.Equal(t, "contested_high_trust", rule)
}

// Every threshold is live policy: retuning low or ambiguous_high moves
// the same evidence shape across outcome patterns.
func TestClassifyThresholdTuning(t *testing.T) {
	singleAgree := func(confidence float64) evidence.AggregatedEvidence {
		return evidence.AggregatedEvidence{
			Results: []evidence.TierResult{
				succeeded(evidence.TierEmbedding, "Nike", confidence),
			},
			Confidence: confidence,
			Agreeing:   []evidence.TierID{evidence.TierEmbedding},
		}
	}

	t.Run("lowering low rescues faint agreement", func(t *testing.T) {
		agg := singleAgree(0.2)

		pattern, _ := newTestClassifier(t).Classify("Nike", &agg)
		assert.Equal(t, evidence.PatternUnclearResult, pattern)

		cfg := config.Default()
		cfg.Engine.Thresholds.Low = 0.05
		require.NoError(t, cfg.Validate())
		pattern, rule := NewClassifier(&cfg.Engine).Classify("Nike", &agg)
		assert.Equal(t, evidence.PatternAmbiguousDescriptor, pattern)
		assert.Equal(t, "faint_agreement", rule)
	})

	t.Run("raising ambiguous_high widens the middle band", func(t *testing.T) {
		agg := singleAgree(0.75)

		pattern, _ := newTestClassifier(t).Classify("Nike", &agg)
		assert.Equal(t, evidence.PatternClearMatch, pattern)

		cfg := config.Default()
		cfg.Engine.Thresholds.AmbiguousHigh = 0.8
		require.NoError(t, cfg.Validate())
		pattern, rule := NewClassifier(&cfg.Engine).Classify("Nike", &agg)
		assert.Equal(t, evidence.PatternAmbiguousDescriptor, pattern)
		assert.Equal(t, "middle_band", rule)
	})
}

func TestClassifyDeterministic(t *testing.T) {
	classifier := newTestClassifier(t)

	agg := evidence.AggregatedEvidence{
		Results: []evidence.TierResult{
			succeeded(evidence.TierVision, "Nike", 0.93),
			succeeded(evidence.TierKnowledgeGraph, "Adidas", 0.61),
		},
		Confidence:  0.7,
		Agreeing:    []evidence.TierID{evidence.TierVision},
		Disagreeing: []evidence.TierID{evidence.TierKnowledgeGraph},
	}

	firstPattern, firstRule := classifier.Classify("Nike", &agg)
	for i := 0; i < 5; i++ {
		pattern, rule := classifier.Classify("Nike", &agg)
		assert.Equal(t, firstPattern, pattern)
		assert.Equal(t, firstRule, rule)
	}
}

func TestShapeOf(t *testing.T) {
	classifier := newTestClassifier(t)

	agg := evidence.AggregatedEvidence{
		Results: []evidence.TierResult{
			succeeded(evidence.TierVision, "Nike", 0.92),
			succeeded(evidence.TierEmbedding, "Nike", 0.55),
			succeeded(evidence.TierKnowledgeGraph, "Adidas", 0.85),
			{Tier: evidence.TierWebSearch, Status: evidence.StatusFailed},
		},
		Confidence: 0.7,
		Agreeing: []evidence.TierID{
			evidence.TierVision, evidence.TierEmbedding,
		},
		Disagreeing: []evidence.TierID{evidence.TierKnowledgeGraph},
	}

	shape := classifier.ShapeOf("Nike", &agg)
	assert.Equal(t, 3, shape.Succeeded)
	assert.Equal(t, 2, shape.AgreeCount)
	assert.Equal(t, 1, shape.DisagreeCount)
	assert.Equal(t, 1, shape.HighTrustAgree)
	assert.InDelta(t, 0.92, shape.BestHighTrustAgreeConfidence, 1e-9)
	assert.True(t, shape.HighTrustStrongDisagree)
}

func TestDecisionTableIsTotal(t *testing.T) {
	last := decisionTable[len(decisionTable)-1]
	assert.True(t, last.matches(Shape{}, config.Thresholds{}))
	assert.True(t, last.matches(Shape{Succeeded: 6, Confidence: 1}, config.Thresholds{}))
}
