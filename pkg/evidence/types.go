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

package evidence

import "strings"

// TierID identifies one evidence provider.
type TierID string

const (
	// TierVectorSimilarity is the vector-similarity search tier.
	TierVectorSimilarity TierID = "vector_similarity"
	// TierWebSearch is the general web search tier.
	TierWebSearch TierID = "web_search"
	// TierAISummary is the AI-assisted web-search summarization tier.
	TierAISummary TierID = "ai_summary"
	// TierVision is the vision-based image classification tier.
	TierVision TierID = "vision"
	// TierKnowledgeGraph is the structured knowledge-graph lookup tier.
	TierKnowledgeGraph TierID = "knowledge_graph"
	// TierEmbedding is the text-embedding similarity fallback tier.
	TierEmbedding TierID = "embedding"
)

// AllTiers lists every tier in canonical order. Orchestration and
// aggregation both iterate in this order so output is stable
// regardless of completion order.
var AllTiers = []TierID{
	TierVectorSimilarity,
	TierWebSearch,
	TierAISummary,
	TierVision,
	TierKnowledgeGraph,
	TierEmbedding,
}

// TierStatus is the outcome status of one tier evaluation.
type TierStatus string

const (
	StatusSucceeded TierStatus = "succeeded"
	StatusFailed    TierStatus = "failed"
	StatusSkipped   TierStatus = "skipped"
	StatusTimedOut  TierStatus = "timed_out"
)

// CategoryContext carries the category a candidate label belongs to and
// the set of labels allowed within it.
type CategoryContext struct {
	Name          string   `json:"name"`
	AllowedLabels []string `json:"allowed_labels,omitempty"`
}

// ValidationRequest is the immutable input to one validation call.
type ValidationRequest struct {
	// Label is the candidate label under validation.
	Label string `json:"label"`

	// ResponseText is the original free-text response the label was
	// assigned to.
	ResponseText string `json:"response_text"`

	// TranslatedText is an optional translation of ResponseText.
	// Providers prefer it over ResponseText when present.
	TranslatedText string `json:"translated_text,omitempty"`

	// Category is the category context for the candidate label.
	Category CategoryContext `json:"category"`

	// ImageURLs are image URLs already known for this response, if any.
	ImageURLs []string `json:"image_urls,omitempty"`
}

// QueryText returns the text providers should evaluate: the translated
// text when available, the original response otherwise.
func (r *ValidationRequest) QueryText() string {
	if strings.TrimSpace(r.TranslatedText) != "" {
		return r.TranslatedText
	}
	return r.ResponseText
}

// Match is one scored candidate produced by a tier.
type Match struct {
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}

// TierResult is the immutable output of one tier for one request.
// Exactly one TierResult exists per applicable tier per request;
// skipped tiers still emit one with StatusSkipped and no payload.
type TierResult struct {
	Tier   TierID     `json:"tier"`
	Status TierStatus `json:"status"`

	// Label is the entity name this tier extracted, empty when the
	// tier produced no usable answer.
	Label string `json:"label,omitempty"`

	// Confidence is the tier's confidence in [0,1], nil when absent.
	Confidence *float64 `json:"confidence,omitempty"`

	// Matches is the tier-specific evidence payload (top-k candidates
	// with scores). May be empty even on success.
	Matches []Match `json:"matches,omitempty"`

	// Images are image URLs discovered by this tier. Only the
	// web-search tier populates this; the orchestrator feeds them to
	// the image-dependent tiers.
	Images []string `json:"images,omitempty"`

	// InAllowedSet reports whether Label is inside the category's
	// allowed label set. Informational only.
	InAllowedSet bool `json:"in_allowed_set,omitempty"`

	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// ConfidenceValue returns the confidence and whether it is present.
func (r TierResult) ConfidenceValue() (float64, bool) {
	if r.Confidence == nil {
		return 0, false
	}
	return *r.Confidence, true
}

// Succeeded reports whether the tier produced usable evidence.
func (r TierResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// AggregatedEvidence is derived from the full set of TierResults for a
// request. It is recomputed, never mutated in place.
type AggregatedEvidence struct {
	// Results holds one entry per applicable tier, in canonical tier
	// order.
	Results []TierResult `json:"results"`

	// Confidence is the fused confidence score in [0,1]. It is 0 only
	// when no tier succeeded.
	Confidence float64 `json:"confidence"`

	// Agreeing lists tiers whose extracted label matches the candidate.
	Agreeing []TierID `json:"agreeing,omitempty"`

	// Disagreeing lists succeeded tiers that proposed a different
	// label, excluding near-tie conflicts resolved in favor of a
	// higher-trust tier. A tier suppressed that way appears in no
	// list; its confidence still contributes partial weight to the
	// fused score.
	Disagreeing []TierID `json:"disagreeing,omitempty"`

	// Silent lists tiers that produced no evidence (failed, skipped,
	// timed out, or succeeded with no label).
	Silent []TierID `json:"silent,omitempty"`
}

// Result returns the TierResult for the given tier, if present.
func (a *AggregatedEvidence) Result(tier TierID) (TierResult, bool) {
	for _, r := range a.Results {
		if r.Tier == tier {
			return r, true
		}
	}
	return TierResult{}, false
}

// SucceededCount returns the number of tiers with StatusSucceeded.
func (a *AggregatedEvidence) SucceededCount() int {
	n := 0
	for _, r := range a.Results {
		if r.Succeeded() {
			n++
		}
	}
	return n
}

// Pattern is one of the five named validation outcome patterns.
type Pattern string

const (
	// PatternCategoryValidated: two or more independent tiers agree on
	// the candidate label with high fused confidence.
	PatternCategoryValidated Pattern = "category_validated"
	// PatternCategoryError: a high-trust tier confidently proposes a
	// different label than the candidate.
	PatternCategoryError Pattern = "category_error"
	// PatternAmbiguousDescriptor: evidence is split between agreement
	// and disagreement, or confidence sits in the middle band.
	PatternAmbiguousDescriptor Pattern = "ambiguous_descriptor"
	// PatternClearMatch: exactly one high-trust tier succeeded with
	// high confidence and nothing contradicts it.
	PatternClearMatch Pattern = "clear_match"
	// PatternUnclearResult: no usable evidence, or confidence below the
	// low threshold with no agreement.
	PatternUnclearResult Pattern = "unclear_result"
)

// ValidationVerdict is the final output returned to the caller.
type ValidationVerdict struct {
	RequestID  string             `json:"request_id,omitempty"`
	Label      string             `json:"label"`
	Pattern    Pattern            `json:"pattern"`
	Confidence float64            `json:"confidence"`
	Reasoning  string             `json:"reasoning"`
	Evidence   AggregatedEvidence `json:"evidence"`
	DurationMs int64              `json:"duration_ms"`
}

// Float64Ptr returns a pointer to v. Convenience for building
// TierResult payloads.
func Float64Ptr(v float64) *float64 { return &v }
