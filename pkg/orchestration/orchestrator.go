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
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
	"github.com/greglas75/coding-ui-sub005/pkg/observability"
	"github.com/greglas75/coding-ui-sub005/pkg/tiers"
)

// Orchestrator executes the two-phase tier plan for one request and
// always returns one TierResult per planned tier, no matter how many
// providers fail or time out.
type Orchestrator struct {
	engine *config.EngineConfig
	plan   Plan
	sem    *semaphore.Weighted
}

// New builds an orchestrator from the engine policy and the provider
// set. Plan construction faults (duplicate tiers, empty set) are the
// only errors; they are configuration mistakes detected before any
// request runs.
func New(engine *config.EngineConfig, providers []tiers.Provider) (*Orchestrator, error) {
	plan, err := BuildPlan(providers)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		engine: engine,
		plan:   plan,
		sem:    semaphore.NewWeighted(int64(engine.MaxConcurrentTiers)),
	}, nil
}

// Execute runs every planned tier under the global deadline and returns
// results in canonical tier order. Tiers still in flight when the
// deadline fires are recorded as timed_out. Caller cancellation
// propagates to every in-flight provider call.
func (o *Orchestrator) Execute(ctx context.Context, req *evidence.ValidationRequest) []evidence.TierResult {
	ctx, cancel := context.WithTimeout(ctx, o.engine.GlobalTimeout())
	defer cancel()

	expected := o.plan.Size()
	resultCh := make(chan evidence.TierResult, expected)

	// webSearchDone carries the image URLs discovered by web search
	// (nil on failure) and unblocks phase 2 exactly once.
	webSearchDone := make(chan []string, 1)

	hasWebSearch := false
	for _, provider := range o.plan.Phase1 {
		if provider.Tier() == evidence.TierWebSearch {
			hasWebSearch = true
		}
		go o.runTier(ctx, provider, req, resultCh, webSearchDone)
	}
	if !hasWebSearch {
		webSearchDone <- nil
	}

	if len(o.plan.Phase2) > 0 {
		go o.runPhase2(ctx, req, resultCh, webSearchDone)
	}

	collected := make(map[evidence.TierID]evidence.TierResult, expected)
collect:
	for len(collected) < expected {
		select {
		case result := <-resultCh:
			collected[result.Tier] = result
		case <-ctx.Done():
			// Global deadline or caller cancellation: stop waiting and
			// record whatever is still missing as timed_out.
			break collect
		}
	}

	// Drain without blocking: a tier may have finished between the
	// deadline firing and the loop exiting.
	for {
		select {
		case result := <-resultCh:
			if _, ok := collected[result.Tier]; !ok {
				collected[result.Tier] = result
			}
			continue
		default:
		}
		break
	}

	ordered := make([]evidence.TierResult, 0, expected)
	for _, tier := range o.plan.Tiers() {
		if result, ok := collected[tier]; ok {
			ordered = append(ordered, result)
			continue
		}
		observability.Warnf("Tier %s still in flight at global deadline, recording timed_out", tier)
		ordered = append(ordered, evidence.TierResult{
			Tier:   tier,
			Status: evidence.StatusTimedOut,
			Error:  evidence.ErrDeadlineExceeded.Error(),
		})
	}
	return ordered
}

// runTier evaluates one provider under its own timeout and reports the
// result. The web-search tier additionally signals phase 2.
func (o *Orchestrator) runTier(
	ctx context.Context,
	provider tiers.Provider,
	req *evidence.ValidationRequest,
	resultCh chan<- evidence.TierResult,
	webSearchDone chan<- []string,
) {
	tier := provider.Tier()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		// Cancelled while queued for a slot.
		resultCh <- evidence.TierResult{
			Tier:   tier,
			Status: evidence.StatusTimedOut,
			Error:  evidence.ErrDeadlineExceeded.Error(),
		}
		if tier == evidence.TierWebSearch {
			webSearchDone <- nil
		}
		return
	}
	defer o.sem.Release(1)

	tierCtx, cancel := context.WithTimeout(ctx, o.engine.TierTimeout(tier))
	defer cancel()

	start := time.Now()
	result := provider.Evaluate(tierCtx, req)
	observability.Debugf("Tier %s finished in %v with status %s", tier, time.Since(start), result.Status)

	resultCh <- result
	if tier == evidence.TierWebSearch {
		webSearchDone <- result.Images
	}
}

// runPhase2 waits for web search to resolve, merges its discovered
// image URLs with the request-supplied ones, and launches the
// dependent tiers. They decide for themselves whether an empty image
// list means skipped.
func (o *Orchestrator) runPhase2(
	ctx context.Context,
	req *evidence.ValidationRequest,
	resultCh chan<- evidence.TierResult,
	webSearchDone <-chan []string,
) {
	var discovered []string
	select {
	case discovered = <-webSearchDone:
	case <-ctx.Done():
		// Phase 2 never started; Execute records its tiers timed_out.
		return
	}

	// New request instance: per-request data is never mutated after
	// creation.
	derived := *req
	derived.ImageURLs = mergeImageURLs(req.ImageURLs, discovered)

	for _, provider := range o.plan.Phase2 {
		go o.runTier(ctx, provider, &derived, resultCh, nil)
	}
}

func mergeImageURLs(known, discovered []string) []string {
	merged := make([]string, 0, len(known)+len(discovered))
	seen := map[string]bool{}
	for _, url := range known {
		if url != "" && !seen[url] {
			seen[url] = true
			merged = append(merged, url)
		}
	}
	for _, url := range discovered {
		if url != "" && !seen[url] {
			seen[url] = true
			merged = append(merged, url)
		}
	}
	return merged
}
