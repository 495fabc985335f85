package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Fallback texts returned by Explain instead of errors
const (
	NoResponseText = "Sorry, I couldn't generate a response."
	FailureText    = "An error occurred while fetching the explanation."
)

// Explainer turns a prompt into display text. It never returns an error:
// every failure resolves to NoResponseText or FailureText so callers only
// ever render a string.
type Explainer struct {
	provider AIProvider
	policy   RetryPolicy
	logf     func(format string, args ...any)
	sleep    sleepFunc
}

// ExplainerOption customizes an Explainer
type ExplainerOption func(*Explainer)

// WithRetryPolicy sets the default budget used when a call passes no options
func WithRetryPolicy(p RetryPolicy) ExplainerOption {
	return func(e *Explainer) { e.policy = p }
}

// WithLogger replaces the diagnostic sink (log.Printf by default)
func WithLogger(logf func(format string, args ...any)) ExplainerOption {
	return func(e *Explainer) {
		if logf != nil {
			e.logf = logf
		}
	}
}

// NewExplainer creates an Explainer backed by provider
func NewExplainer(provider AIProvider, opts ...ExplainerOption) *Explainer {
	e := &Explainer{
		provider: provider,
		policy:   DefaultRetryPolicy(),
		logf:     log.Printf,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CallOption overrides the retry budget for one Explain call
type CallOption func(*RetryPolicy)

// WithRetries sets the number of retries after the first attempt
func WithRetries(n int) CallOption {
	return func(p *RetryPolicy) { p.Retries = n }
}

// WithInitialDelay sets the wait before the first retry
func WithInitialDelay(d time.Duration) CallOption {
	return func(p *RetryPolicy) { p.InitialDelay = d }
}

// Policy returns the default retry budget
func (e *Explainer) Policy() RetryPolicy {
	return e.policy
}

// Explain sends prompt as a single user turn and returns the reply text.
// Transport failures are retried with exponential backoff; a reply without
// text is not. Attempts never overlap, and each call keeps its own budget.
func (e *Explainer) Explain(ctx context.Context, prompt string, opts ...CallOption) string {
	if strings.TrimSpace(prompt) == "" || e.provider == nil {
		return NoResponseText
	}

	policy := e.policy
	for _, opt := range opts {
		opt(&policy)
	}

	var response string
	messages := []Message{{Role: "user", Content: prompt}}
	err := withRetry(ctx, policy, e.sleep, func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("provider panic: %v", r)
			}
		}()

		text, err := e.provider.Chat(ctx, messages)
		if errors.Is(err, ErrEmptyResponse) {
			return permanent(err)
		}
		if err != nil {
			return err
		}
		response = text
		return nil
	})

	switch {
	case err == nil:
		return response
	case errors.Is(err, ErrEmptyResponse):
		return NoResponseText
	default:
		e.logf("[EXPLAIN] Error calling AI provider: %v", err)
		return FailureText
	}
}
