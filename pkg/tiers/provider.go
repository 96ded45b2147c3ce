package tiers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
	"github.com/greglas75/coding-ui-sub005/pkg/metrics"
	"github.com/greglas75/coding-ui-sub005/pkg/observability"
)

// Provider is one evidence tier. Evaluate must never panic or return an
// error past its boundary: every internal failure is converted into a
// TierResult with status failed or timed_out.
type Provider interface {
	Tier() evidence.TierID
	Evaluate(ctx context.Context, req *evidence.ValidationRequest) evidence.TierResult
}

// evalFunc is the tier-specific body wrapped by run. It returns the
// partially-filled result (label, confidence, matches) or an error.
type evalFunc func(ctx context.Context) (evidence.TierResult, error)

// run wraps a tier evaluation with timing, panic recovery and error
// conversion. The returned result always carries the tier ID, latency
// and a terminal status.
func run(ctx context.Context, tier evidence.TierID, fn evalFunc) (result evidence.TierResult) {
	start := time.Now()

	finish := func(r evidence.TierResult) evidence.TierResult {
		r.Tier = tier
		r.LatencyMs = time.Since(start).Milliseconds()
		metrics.RecordTierResult(string(tier), string(r.Status), time.Since(start).Seconds())
		return r
	}

	defer func() {
		if rec := recover(); rec != nil {
			observability.Errorf("Tier %s panicked: %v", tier, rec)
			result = finish(evidence.TierResult{
				Status: evidence.StatusFailed,
				Error:  fmt.Sprintf("internal panic: %v", rec),
			})
		}
	}()

	res, err := fn(ctx)
	if err != nil {
		status := evidence.StatusForError(err)
		if status == evidence.StatusTimedOut {
			observability.Warnf("Tier %s timed out after %v", tier, time.Since(start))
		} else {
			observability.Warnf("Tier %s failed: %v", tier, err)
		}
		return finish(evidence.TierResult{
			Status: status,
			Error:  err.Error(),
		})
	}

	if res.Status == "" {
		res.Status = evidence.StatusSucceeded
	}
	return finish(res)
}

// skipped builds the result emitted when a tier is not applicable to
// the request. No network call is made.
func skipped(tier evidence.TierID, reason string) evidence.TierResult {
	metrics.RecordTierResult(string(tier), string(evidence.StatusSkipped), 0)
	return evidence.TierResult{
		Tier:   tier,
		Status: evidence.StatusSkipped,
		Error:  reason,
	}
}

// retryOnce calls fn and retries a single time when the failure is
// transient (network error or retryable API status). The retry still
// honors the tier deadline through ctx.
func retryOnce(ctx context.Context, tier evidence.TierID, fn func() error) error {
	err := fn()
	if err == nil || !isTransient(err) {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}
	observability.Debugf("Tier %s retrying after transient failure: %v", tier, err)
	return fn()
}

func isTransient(err error) bool {
	var apiErr *evidence.TierAPIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
