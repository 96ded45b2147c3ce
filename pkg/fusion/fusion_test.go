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

package fusion

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

func TestFusion(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Fusion Suite")
}

func succeededResult(tier evidence.TierID, label string, confidence float64) evidence.TierResult {
	return evidence.TierResult{
		Tier:       tier,
		Status:     evidence.StatusSucceeded,
		Label:      label,
		Confidence: evidence.Float64Ptr(confidence),
	}
}

func statusResult(tier evidence.TierID, status evidence.TierStatus) evidence.TierResult {
	return evidence.TierResult{Tier: tier, Status: status}
}

var _ = Describe("Aggregator", func() {
	var (
		aggregator *Aggregator
		req        *evidence.ValidationRequest
	)

	BeforeEach(func() {
		cfg := config.Default()
		aggregator = NewAggregator(&cfg.Engine)
		req = &evidence.ValidationRequest{
			Label:        "Nike",
			ResponseText: "nike shoes",
			Category:     evidence.CategoryContext{Name: "Sportswear"},
		}
	})

	Context("with no succeeded tiers", func() {
		It("should produce exactly zero confidence", func() {
			results := []evidence.TierResult{
				statusResult(evidence.TierVectorSimilarity, evidence.StatusFailed),
				statusResult(evidence.TierWebSearch, evidence.StatusTimedOut),
				statusResult(evidence.TierAISummary, evidence.StatusSkipped),
				statusResult(evidence.TierVision, evidence.StatusSkipped),
				statusResult(evidence.TierKnowledgeGraph, evidence.StatusFailed),
				statusResult(evidence.TierEmbedding, evidence.StatusFailed),
			}
			agg := aggregator.Aggregate(req, results)
			Expect(agg.Confidence).To(BeZero())
			Expect(agg.Agreeing).To(BeEmpty())
			Expect(agg.Disagreeing).To(BeEmpty())
			Expect(agg.Silent).To(HaveLen(6))
		})
	})

	Context("with a zero-confidence succeeded tier", func() {
		It("should fuse to zero while still counting the tier as evidence", func() {
			// A search that finds zero label mentions succeeds with
			// confidence 0; the weighted average then lands on exactly
			// 0 even though the tier responded.
			results := []evidence.TierResult{
				succeededResult(evidence.TierWebSearch, "", 0.0),
				statusResult(evidence.TierVision, evidence.StatusSkipped),
			}
			agg := aggregator.Aggregate(req, results)
			Expect(agg.Confidence).To(BeZero())
			Expect(agg.SucceededCount()).To(Equal(1))
		})
	})

	Context("with corroborating tiers", func() {
		It("should reward agreement with a higher-trust tier", func() {
			results := []evidence.TierResult{
				succeededResult(evidence.TierVision, "Nike", 1.0),
				succeededResult(evidence.TierKnowledgeGraph, "Nike", 0.9),
			}
			agg := aggregator.Aggregate(req, results)

			// Vision (trust 1.0) carries no bonus, knowledge graph is
			// corroborated by the higher-trust vision tier: weight
			// 0.95*1.25. Average = (1.0 + 1.1875*0.9) / 2.1875.
			Expect(agg.Confidence).To(BeNumerically("~", 0.9457, 0.001))
			Expect(agg.Agreeing).To(ConsistOf(evidence.TierVision, evidence.TierKnowledgeGraph))
			Expect(agg.Disagreeing).To(BeEmpty())
		})

		It("should apply the bonus only to the lower-trust tier", func() {
			agg := aggregator.Aggregate(req, []evidence.TierResult{
				succeededResult(evidence.TierKnowledgeGraph, "Nike", 0.6),
				succeededResult(evidence.TierEmbedding, "Nike", 0.9),
			})
			// Embedding (trust 0.6) is corroborated by the knowledge
			// graph: (0.95*0.6 + 0.75*0.9) / 1.70.
			Expect(agg.Confidence).To(BeNumerically("~", 0.7323, 0.001))
		})
	})

	Context("with skipped image tiers", func() {
		It("should not penalize the remaining tiers", func() {
			base := []evidence.TierResult{
				succeededResult(evidence.TierVectorSimilarity, "Nike", 0.8),
				succeededResult(evidence.TierKnowledgeGraph, "Nike", 0.9),
			}
			withSkips := append([]evidence.TierResult{}, base...)
			withSkips = append(withSkips,
				statusResult(evidence.TierAISummary, evidence.StatusSkipped),
				statusResult(evidence.TierVision, evidence.StatusSkipped),
			)

			Expect(aggregator.Aggregate(req, withSkips).Confidence).
				To(Equal(aggregator.Aggregate(req, base).Confidence))
		})
	})

	Context("with disagreement", func() {
		It("should record disagreeing tiers", func() {
			results := []evidence.TierResult{
				succeededResult(evidence.TierVision, "Adidas", 0.95),
				succeededResult(evidence.TierEmbedding, "Nike", 0.5),
			}
			agg := aggregator.Aggregate(req, results)
			Expect(agg.Agreeing).To(ConsistOf(evidence.TierEmbedding))
			Expect(agg.Disagreeing).To(ConsistOf(evidence.TierVision))
		})

		It("should suppress a near-tie lost to a higher-trust tier", func() {
			results := []evidence.TierResult{
				succeededResult(evidence.TierVision, "Nike", 0.9),
				succeededResult(evidence.TierKnowledgeGraph, "Adidas", 0.9),
			}
			agg := aggregator.Aggregate(req, results)

			// Same confidence, lower trust: the knowledge-graph
			// disagreement is recorded in no list and contributes only
			// partial weight.
			Expect(agg.Agreeing).To(ConsistOf(evidence.TierVision))
			Expect(agg.Disagreeing).To(BeEmpty())
			Expect(agg.Confidence).To(BeNumerically(">", 0))
		})

		It("should keep a clear disagreement outside the epsilon window", func() {
			results := []evidence.TierResult{
				succeededResult(evidence.TierVision, "Nike", 0.95),
				succeededResult(evidence.TierKnowledgeGraph, "Adidas", 0.7),
			}
			agg := aggregator.Aggregate(req, results)
			Expect(agg.Disagreeing).To(ConsistOf(evidence.TierKnowledgeGraph))
		})
	})

	Context("determinism", func() {
		It("should produce identical evidence for identical input", func() {
			results := []evidence.TierResult{
				succeededResult(evidence.TierVision, "Nike", 0.93),
				succeededResult(evidence.TierKnowledgeGraph, "Adidas", 0.61),
				statusResult(evidence.TierWebSearch, evidence.StatusFailed),
			}
			first := aggregator.Aggregate(req, results)
			second := aggregator.Aggregate(req, results)
			Expect(second).To(Equal(first))
		})
	})

	Context("with a succeeded tier that extracted nothing", func() {
		It("should treat it as silent but keep its confidence", func() {
			results := []evidence.TierResult{
				succeededResult(evidence.TierKnowledgeGraph, "", 0.0),
				succeededResult(evidence.TierVision, "Nike", 0.9),
			}
			agg := aggregator.Aggregate(req, results)
			Expect(agg.Agreeing).To(ConsistOf(evidence.TierVision))
			Expect(agg.Silent).To(ConsistOf(evidence.TierKnowledgeGraph))
			Expect(agg.Confidence).To(BeNumerically(">", 0))
		})
	})
})
