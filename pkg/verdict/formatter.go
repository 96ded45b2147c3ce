// Package verdict assembles the final ValidationVerdict. It is
// presentation only: every decision was already made by the classifier.
package verdict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

// Format builds the verdict returned to the caller, including the
// human-readable reasoning string naming the contributing tiers.
func Format(req *evidence.ValidationRequest, agg evidence.AggregatedEvidence, pattern evidence.Pattern, ruleName string) evidence.ValidationVerdict {
	return evidence.ValidationVerdict{
		Label:      req.Label,
		Pattern:    pattern,
		Confidence: agg.Confidence,
		Reasoning:  buildReasoning(req.Label, &agg, pattern, ruleName),
		Evidence:   agg,
	}
}

func buildReasoning(candidate string, agg *evidence.AggregatedEvidence, pattern evidence.Pattern, ruleName string) string {
	if agg.SucceededCount() == 0 {
		return fmt.Sprintf(
			"No evidence source responded for label %q: %s. Classified as %s.",
			candidate, summarizeSilent(agg), pattern,
		)
	}

	var parts []string
	if len(agg.Agreeing) > 0 {
		parts = append(parts, fmt.Sprintf(
			"%s corroborate label %q", tierList(agg, agg.Agreeing), candidate))
	}
	if len(agg.Disagreeing) > 0 {
		parts = append(parts, fmt.Sprintf(
			"%s propose a different label (%s)", tierList(agg, agg.Disagreeing), alternativeLabels(agg)))
	}
	if silent := summarizeSilent(agg); silent != "" {
		parts = append(parts, silent)
	}

	if len(parts) == 0 {
		parts = append(parts, "no tier extracted a usable label")
	}

	return fmt.Sprintf("%s. Classified as %s (rule %s) with confidence %.2f.",
		strings.Join(parts, "; "), pattern, ruleName, agg.Confidence)
}

// tierList renders tiers with their individual confidences, e.g.
// "vision (1.00) and knowledge_graph (0.90)".
func tierList(agg *evidence.AggregatedEvidence, tiers []evidence.TierID) string {
	entries := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		if result, ok := agg.Result(tier); ok {
			if conf, has := result.ConfidenceValue(); has {
				entries = append(entries, fmt.Sprintf("%s (%.2f)", tier, conf))
				continue
			}
		}
		entries = append(entries, string(tier))
	}
	switch len(entries) {
	case 0:
		return ""
	case 1:
		return entries[0]
	default:
		return strings.Join(entries[:len(entries)-1], ", ") + " and " + entries[len(entries)-1]
	}
}

func alternativeLabels(agg *evidence.AggregatedEvidence) string {
	labels := map[string]bool{}
	for _, tier := range agg.Disagreeing {
		if result, ok := agg.Result(tier); ok && result.Label != "" {
			labels[result.Label] = true
		}
	}
	ordered := make([]string, 0, len(labels))
	for label := range labels {
		ordered = append(ordered, label)
	}
	sort.Strings(ordered)
	return strings.Join(ordered, ", ")
}

// summarizeSilent reports non-contributing tiers grouped by status.
func summarizeSilent(agg *evidence.AggregatedEvidence) string {
	byStatus := map[evidence.TierStatus][]string{}
	for _, result := range agg.Results {
		if result.Succeeded() {
			continue
		}
		byStatus[result.Status] = append(byStatus[result.Status], string(result.Tier))
	}

	var parts []string
	for _, status := range []evidence.TierStatus{evidence.StatusFailed, evidence.StatusTimedOut, evidence.StatusSkipped} {
		if tiers := byStatus[status]; len(tiers) > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", strings.Join(tiers, ", "), status))
		}
	}
	return strings.Join(parts, "; ")
}
