package harvest

import (
	"math"
	"time"

	"github.com/willowgs/viciharvest/internal/config"
	"github.com/willowgs/viciharvest/internal/model"
)

// RetryPolicy is the attempt budget and backoff schedule for a work.
//
// Design decision: Retry behavior is an explicit policy object selected
// by priority class rather than flags scattered through the
// orchestrator. The two policies in use are visible in one place and a
// test can hand the orchestrator a zero-delay policy.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration

	// Multiplier grows the delay for each further attempt.
	Multiplier float64
}

// Delay returns the backoff before the attempt following the given one.
// Attempt numbering starts at 1, so Delay(1) is the wait between the
// first failure and the second attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	if attempt <= 1 || p.Multiplier <= 0 {
		return p.BaseDelay
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
}

// CriticalPolicy returns the retry policy for critical-priority works.
func CriticalPolicy(cfg *config.Config) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.RetryBackoff,
		Multiplier:  config.DefaultRetryMultiplier,
	}
}

// SingleAttempt is the policy for non-critical works: one attempt, no
// backoff.
func SingleAttempt() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// PolicyFor selects the retry policy for a priority class.
func PolicyFor(priority model.Priority, critical RetryPolicy) RetryPolicy {
	if priority == model.PriorityCritical {
		return critical
	}
	return SingleAttempt()
}
