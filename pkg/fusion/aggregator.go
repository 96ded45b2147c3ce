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

// Package fusion merges the heterogeneous per-tier confidence signals
// of one validation request into a single weighted score plus the
// agreement structure the classifier consumes. Aggregation is a pure
// function of the tier results and the engine policy: identical inputs
// always produce identical evidence, regardless of tier completion
// order.
package fusion

import (
	"math"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

// Aggregator fuses tier results under a fixed trust-weight policy.
type Aggregator struct {
	engine *config.EngineConfig
}

// NewAggregator builds an aggregator bound to the engine policy.
func NewAggregator(engine *config.EngineConfig) *Aggregator {
	return &Aggregator{engine: engine}
}

// signal is one succeeded tier's contribution, precomputed for the
// weighting passes.
type signal struct {
	tier          evidence.TierID
	label         string
	confidence    float64
	hasConfidence bool
	trust         float64
}

// Aggregate derives AggregatedEvidence from the full (possibly
// partial) result set of one request. The scalar confidence is a
// weighted average over succeeded tiers only, so skipped or failed
// tiers never dilute the tiers that did answer. It is exactly 0 when
// no tier succeeded.
func (a *Aggregator) Aggregate(req *evidence.ValidationRequest, results []evidence.TierResult) evidence.AggregatedEvidence {
	agg := evidence.AggregatedEvidence{
		Results: results,
	}

	signals := make([]signal, 0, len(results))
	for _, r := range results {
		if !r.Succeeded() {
			agg.Silent = append(agg.Silent, r.Tier)
			continue
		}
		conf, ok := r.ConfidenceValue()
		signals = append(signals, signal{
			tier:          r.Tier,
			label:         evidence.NormalizeLabel(r.Label),
			confidence:    conf,
			hasConfidence: ok,
			trust:         a.engine.TrustWeight(r.Tier),
		})
	}

	candidate := evidence.NormalizeLabel(req.Label)
	epsilon := a.engine.Agreement.Epsilon
	bonus := a.engine.Agreement.Bonus

	var weightedSum, weightTotal float64
	for i, s := range signals {
		if s.label == "" {
			// Succeeded but extracted nothing: no stance on the label.
			agg.Silent = append(agg.Silent, s.tier)
		}

		corroborated := false
		suppressed := false
		for j, other := range signals {
			if i == j || other.label == "" || s.label == "" {
				continue
			}
			if other.label == s.label {
				if other.trust > s.trust {
					corroborated = true
				}
				continue
			}
			// Competing labels at near-equal confidence: the
			// higher-trust tier wins the tie.
			if s.hasConfidence && other.hasConfidence &&
				math.Abs(s.confidence-other.confidence) <= epsilon &&
				other.trust > s.trust {
				suppressed = true
			}
		}

		if s.label != "" {
			switch {
			case s.label == candidate:
				agg.Agreeing = append(agg.Agreeing, s.tier)
			case suppressed:
				// Tie lost to a higher-trust tier: recorded in no
				// list, partial weight below.
			default:
				agg.Disagreeing = append(agg.Disagreeing, s.tier)
			}
		}

		if !s.hasConfidence {
			continue
		}
		weight := s.trust
		if corroborated {
			weight *= bonus
		}
		if suppressed {
			weight *= 0.5
		}
		weightedSum += weight * s.confidence
		weightTotal += weight
	}

	if weightTotal > 0 {
		agg.Confidence = clamp01(weightedSum / weightTotal)
	}
	return agg
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
