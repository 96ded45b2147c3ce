package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/greglas75/coding-ui-sub005/pkg/cache"
	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/decision"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
	"github.com/greglas75/coding-ui-sub005/pkg/fusion"
	"github.com/greglas75/coding-ui-sub005/pkg/metrics"
	"github.com/greglas75/coding-ui-sub005/pkg/observability"
	"github.com/greglas75/coding-ui-sub005/pkg/orchestration"
	"github.com/greglas75/coding-ui-sub005/pkg/tiers"
	"github.com/greglas75/coding-ui-sub005/pkg/verdict"
)

// ValidationService is the engine's single invocation boundary: one
// call in, one complete verdict out. The only errors it returns are
// request or configuration faults detected before any tier runs; tier
// failures are absorbed into the verdict itself.
type ValidationService struct {
	cfg          *config.Config
	orchestrator *orchestration.Orchestrator
	aggregator   *fusion.Aggregator
	classifier   *decision.Classifier
	verdictCache cache.VerdictCache
}

// NewValidationService wires the orchestrator, aggregator and
// classifier around the injected provider set. verdictCache may be nil.
func NewValidationService(cfg *config.Config, providers []tiers.Provider, verdictCache cache.VerdictCache) (*ValidationService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	orchestrator, err := orchestration.New(&cfg.Engine, providers)
	if err != nil {
		return nil, err
	}
	return &ValidationService{
		cfg:          cfg,
		orchestrator: orchestrator,
		aggregator:   fusion.NewAggregator(&cfg.Engine),
		classifier:   decision.NewClassifier(&cfg.Engine),
		verdictCache: verdictCache,
	}, nil
}

// Validate runs one validation request end to end. The caller always
// receives a complete verdict, even when every evidence source failed.
func (s *ValidationService) Validate(ctx context.Context, req *evidence.ValidationRequest) (*evidence.ValidationVerdict, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	start := time.Now()

	if s.verdictCache != nil {
		key := cache.Fingerprint(req)
		cached, ok, err := s.verdictCache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.RecordCacheLookup("error")
			observability.Warnf("Verdict cache lookup failed: %v", err)
		case ok:
			metrics.RecordCacheLookup("hit")
			observability.Debugf("Verdict cache hit for label %q", req.Label)
			return cached, nil
		default:
			metrics.RecordCacheLookup("miss")
		}
	}

	observability.Infof("Validating label %q in category %q (request %s)",
		req.Label, req.Category.Name, requestID)

	results := s.orchestrator.Execute(ctx, req)
	agg := s.aggregator.Aggregate(req, results)
	pattern, ruleName := s.classifier.Classify(req.Label, &agg)

	v := verdict.Format(req, agg, pattern, ruleName)
	v.RequestID = requestID
	v.DurationMs = time.Since(start).Milliseconds()

	metrics.RecordVerdict(string(pattern), agg.Confidence)
	metrics.RecordValidation(time.Since(start).Seconds())
	observability.Infof("Label %q classified as %s with confidence %.2f in %dms (request %s)",
		req.Label, pattern, agg.Confidence, v.DurationMs, requestID)

	if s.verdictCache != nil {
		if err := s.verdictCache.Set(ctx, cache.Fingerprint(req), &v); err != nil {
			observability.Warnf("Verdict cache store failed: %v", err)
		}
	}
	return &v, nil
}

// validateRequest rejects malformed requests before any tier runs.
func validateRequest(req *evidence.ValidationRequest) error {
	if req == nil {
		return fmt.Errorf("validation request is required")
	}
	if strings.TrimSpace(req.Label) == "" {
		return fmt.Errorf("candidate label is required")
	}
	if strings.TrimSpace(req.ResponseText) == "" {
		return fmt.Errorf("response text is required")
	}
	return nil
}
