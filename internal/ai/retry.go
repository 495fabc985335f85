package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Default retry budget: 3 retries after the first attempt, waiting 1s, 2s, 4s
const (
	DefaultRetries      = 3
	DefaultInitialDelay = 1 * time.Second
)

// RetryPolicy bounds a retry chain. Retries counts attempts after the first
// one; the delay before retry n is InitialDelay * 2^(n-1).
type RetryPolicy struct {
	Retries      int
	InitialDelay time.Duration
}

// DefaultRetryPolicy returns the 3 retries / 1s policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: DefaultRetries, InitialDelay: DefaultInitialDelay}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	return p
}

// permanentError stops withRetry without further attempts
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// permanent marks err as not worth retrying
func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// sleepFunc waits for d or until ctx is done
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withRetry executes fn with exponential backoff.
// fn runs at most policy.Retries+1 times; a permanent error or a done context
// ends the chain early. sleep waits out each backoff delay.
func withRetry(ctx context.Context, policy RetryPolicy, sleep sleepFunc, fn func() error) error {
	policy = policy.normalized()
	delay := policy.InitialDelay

	var err error
	for attempt := 0; attempt <= policy.Retries; attempt++ {
		if attempt > 0 {
			log.Printf("Retry attempt %d/%d after %v", attempt, policy.Retries, delay)
			if sleepErr := sleep(ctx, delay); sleepErr != nil {
				return fmt.Errorf("retry cancelled after %d attempts: %w (last error: %v)", attempt, sleepErr, err)
			}
			delay *= 2
		}

		err = fn()
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}

		log.Printf("Attempt %d failed: %v", attempt+1, err)
	}

	return fmt.Errorf("failed after %d attempts: %w", policy.Retries+1, err)
}
