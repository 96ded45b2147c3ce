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

package orchestration

import (
	"fmt"

	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
	"github.com/greglas75/coding-ui-sub005/pkg/tiers"
)

// dependentTiers consume the image URLs produced by the web-search
// tier and therefore run in phase 2.
var dependentTiers = map[evidence.TierID]bool{
	evidence.TierAISummary: true,
	evidence.TierVision:    true,
}

// Plan is the explicit two-phase execution plan. Phase 1 tiers are
// mutually independent and start together; phase 2 tiers start once
// the web-search tier has resolved, since they consume its discovered
// image URLs.
type Plan struct {
	Phase1 []tiers.Provider
	Phase2 []tiers.Provider
}

// BuildPlan splits providers into phases and rejects duplicate tiers.
// A plan without a web-search provider is valid: phase 2 then starts
// immediately with only the request-supplied image URLs.
func BuildPlan(providers []tiers.Provider) (Plan, error) {
	var plan Plan
	seen := map[evidence.TierID]bool{}
	for _, p := range providers {
		tier := p.Tier()
		if seen[tier] {
			return Plan{}, fmt.Errorf("duplicate provider for tier %s", tier)
		}
		seen[tier] = true
		if dependentTiers[tier] {
			plan.Phase2 = append(plan.Phase2, p)
		} else {
			plan.Phase1 = append(plan.Phase1, p)
		}
	}
	if len(plan.Phase1)+len(plan.Phase2) == 0 {
		return Plan{}, fmt.Errorf("no providers configured")
	}
	return plan, nil
}

// Tiers returns every tier in the plan in canonical order.
func (p Plan) Tiers() []evidence.TierID {
	present := map[evidence.TierID]bool{}
	for _, provider := range p.Phase1 {
		present[provider.Tier()] = true
	}
	for _, provider := range p.Phase2 {
		present[provider.Tier()] = true
	}
	ordered := make([]evidence.TierID, 0, len(present))
	for _, tier := range evidence.AllTiers {
		if present[tier] {
			ordered = append(ordered, tier)
		}
	}
	return ordered
}

// Size returns the number of tiers in the plan.
func (p Plan) Size() int {
	return len(p.Phase1) + len(p.Phase2)
}
