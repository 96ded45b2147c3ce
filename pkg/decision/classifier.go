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

// Package decision classifies aggregated evidence into one of the five
// validation outcome patterns. Classification is a pure function of
// the evidence and the engine policy: the same evidence always yields
// the same pattern, which callers rely on for caching and replayable
// audits.
package decision

import (
	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

// Shape is the agreement configuration extracted from one request's
// aggregated evidence. The rule table dispatches on shapes, not on raw
// tier results, which keeps every outcome case independently testable.
type Shape struct {
	// Succeeded is the number of tiers that produced usable evidence.
	Succeeded int

	// AgreeCount is the number of tiers whose extracted label matches
	// the candidate.
	AgreeCount int

	// DisagreeCount is the number of tiers proposing a different
	// label, after near-tie suppression.
	DisagreeCount int

	// HighTrustAgree is the number of high-trust tiers among the
	// agreeing ones.
	HighTrustAgree int

	// BestHighTrustAgreeConfidence is the strongest confidence among
	// high-trust agreeing tiers.
	BestHighTrustAgreeConfidence float64

	// HighTrustStrongDisagree reports whether any high-trust tier
	// confidently proposed a label other than the candidate. Computed
	// from the raw results so near-tie suppression cannot hide a
	// confident contradiction.
	HighTrustStrongDisagree bool

	// Confidence is the fused confidence score.
	Confidence float64
}

// rule is one row of the decision table. Rules are evaluated in order;
// the first matching rule decides the pattern.
type rule struct {
	name    string
	matches func(s Shape, t config.Thresholds) bool
	pattern evidence.Pattern
}

// decisionTable maps evidence shapes onto the five outcome patterns.
// Order is part of the policy: contradiction outranks agreement, and
// corroborated agreement outranks a single strong signal.
var decisionTable = []rule{
	{
		name: "no_evidence",
		matches: func(s Shape, t config.Thresholds) bool {
			return s.Succeeded == 0
		},
		pattern: evidence.PatternUnclearResult,
	},
	{
		name: "confident_contradiction",
		matches: func(s Shape, t config.Thresholds) bool {
			return s.HighTrustStrongDisagree && s.AgreeCount == 0
		},
		pattern: evidence.PatternCategoryError,
	},
	{
		name: "contested_high_trust",
		matches: func(s Shape, t config.Thresholds) bool {
			return s.HighTrustStrongDisagree
		},
		pattern: evidence.PatternAmbiguousDescriptor,
	},
	{
		name: "split_evidence",
		matches: func(s Shape, t config.Thresholds) bool {
			diff := s.AgreeCount - s.DisagreeCount
			if diff < 0 {
				diff = -diff
			}
			return s.AgreeCount > 0 && s.DisagreeCount > 0 && diff <= 1
		},
		pattern: evidence.PatternAmbiguousDescriptor,
	},
	{
		name: "corroborated_agreement",
		matches: func(s Shape, t config.Thresholds) bool {
			return s.AgreeCount >= 2 && s.Confidence >= t.High
		},
		pattern: evidence.PatternCategoryValidated,
	},
	{
		name: "sole_high_trust_match",
		matches: func(s Shape, t config.Thresholds) bool {
			return s.HighTrustAgree == 1 && s.DisagreeCount == 0 &&
				s.BestHighTrustAgreeConfidence >= t.High
		},
		pattern: evidence.PatternClearMatch,
	},
	{
		name: "uncontested_agreement",
		matches: func(s Shape, t config.Thresholds) bool {
			return s.AgreeCount > 0 && s.DisagreeCount == 0 &&
				s.Confidence >= t.AmbiguousHigh
		},
		pattern: evidence.PatternClearMatch,
	},
	{
		name: "middle_band",
		matches: func(s Shape, t config.Thresholds) bool {
			return s.Confidence >= t.AmbiguousLow && s.Confidence < t.AmbiguousHigh
		},
		pattern: evidence.PatternAmbiguousDescriptor,
	},
	{
		name: "faint_agreement",
		matches: func(s Shape, t config.Thresholds) bool {
			return s.AgreeCount > 0 && s.Confidence >= t.Low
		},
		pattern: evidence.PatternAmbiguousDescriptor,
	},
	{
		name: "weak_or_no_support",
		matches: func(s Shape, t config.Thresholds) bool {
			return true
		},
		pattern: evidence.PatternUnclearResult,
	},
}

// Classifier maps aggregated evidence onto outcome patterns.
type Classifier struct {
	engine *config.EngineConfig
}

// NewClassifier builds a classifier bound to the engine policy.
func NewClassifier(engine *config.EngineConfig) *Classifier {
	return &Classifier{engine: engine}
}

// Classify returns the outcome pattern for the given candidate label
// and aggregated evidence, plus the name of the decision-table rule
// that fired, for audit.
func (c *Classifier) Classify(candidate string, agg *evidence.AggregatedEvidence) (evidence.Pattern, string) {
	shape := c.ShapeOf(candidate, agg)
	for _, r := range decisionTable {
		if r.matches(shape, c.engine.Thresholds) {
			return r.pattern, r.name
		}
	}
	// The table is total: the fallback rule always matches.
	return evidence.PatternUnclearResult, "weak_or_no_support"
}

// ShapeOf extracts the agreement configuration from aggregated
// evidence. Exported so the shape derivation is testable on its own.
func (c *Classifier) ShapeOf(candidate string, agg *evidence.AggregatedEvidence) Shape {
	shape := Shape{
		Succeeded:     agg.SucceededCount(),
		AgreeCount:    len(agg.Agreeing),
		DisagreeCount: len(agg.Disagreeing),
		Confidence:    agg.Confidence,
	}

	agreeing := map[evidence.TierID]bool{}
	for _, tier := range agg.Agreeing {
		agreeing[tier] = true
	}

	strong := c.engine.Agreement.StrongDisagreement
	for _, r := range agg.Results {
		if !r.Succeeded() {
			continue
		}
		conf, hasConf := r.ConfidenceValue()
		if agreeing[r.Tier] && c.engine.IsHighTrust(r.Tier) {
			shape.HighTrustAgree++
			if hasConf && conf > shape.BestHighTrustAgreeConfidence {
				shape.BestHighTrustAgreeConfidence = conf
			}
		}
		if r.Label != "" && !evidence.SameLabel(r.Label, candidate) &&
			c.engine.IsHighTrust(r.Tier) && hasConf && conf >= strong {
			shape.HighTrustStrongDisagree = true
		}
	}
	return shape
}
