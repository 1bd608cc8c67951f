package harvest

import (
	"testing"
	"time"

	"github.com/willowgs/viciharvest/internal/config"
	"github.com/willowgs/viciharvest/internal/model"
)

func TestRetryPolicyDelay(t *testing.T) {
	t.Parallel()

	t.Run("grows by multiplier", func(t *testing.T) {
		t.Parallel()
		p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 1.5}

		if got := p.Delay(1); got != time.Second {
			t.Errorf("Delay(1) = %v, want 1s", got)
		}
		if got := p.Delay(2); got != 1500*time.Millisecond {
			t.Errorf("Delay(2) = %v, want 1.5s", got)
		}
		if got := p.Delay(3); got != 2250*time.Millisecond {
			t.Errorf("Delay(3) = %v, want 2.25s", got)
		}
	})

	t.Run("zero base means no delay", func(t *testing.T) {
		t.Parallel()
		p := RetryPolicy{MaxAttempts: 3}
		if got := p.Delay(2); got != 0 {
			t.Errorf("Delay(2) = %v, want 0", got)
		}
	})

	t.Run("zero multiplier stays at base", func(t *testing.T) {
		t.Parallel()
		p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
		if got := p.Delay(5); got != time.Second {
			t.Errorf("Delay(5) = %v, want 1s", got)
		}
	})
}

func TestPolicyFor(t *testing.T) {
	t.Parallel()

	critical := CriticalPolicy(config.NewConfig())

	if got := PolicyFor(model.PriorityCritical, critical); got.MaxAttempts != config.DefaultMaxRetries {
		t.Errorf("critical policy MaxAttempts = %d, want %d", got.MaxAttempts, config.DefaultMaxRetries)
	}

	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityNormal} {
		if got := PolicyFor(p, critical); got.MaxAttempts != 1 {
			t.Errorf("PolicyFor(%v).MaxAttempts = %d, want 1", p, got.MaxAttempts)
		}
	}
}
