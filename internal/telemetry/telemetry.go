// Package telemetry posts anonymous usage events (one row per event: time,
// notebook, session) to a spreadsheet-style collector URL.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ErrThrottled is returned when an event is dropped by the rate limiter
var ErrThrottled = errors.New("telemetry event throttled")

const timestampLayout = "2006-01-02 15:04:05.000000"

// Logger sends events for one process lifetime (one session ID)
type Logger struct {
	url       string
	notebook  string
	sessionID string
	client    *http.Client
	limiter   *rate.Limiter
	now       func() time.Time
}

// New creates a Logger. An empty url yields a disabled Logger whose LogEvent
// is a no-op.
func New(collectorURL, notebook string) *Logger {
	return &Logger{
		url:       strings.TrimSpace(collectorURL),
		notebook:  notebook,
		sessionID: uuid.NewString(),
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 3),
		now:       time.Now,
	}
}

// Enabled reports whether events are sent anywhere
func (l *Logger) Enabled() bool {
	return l != nil && l.url != ""
}

// SessionID identifies this process in every event
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogEvent posts one event as a form body
func (l *Logger) LogEvent(ctx context.Context, event string) error {
	if !l.Enabled() {
		return nil
	}
	if !l.limiter.Allow() {
		return ErrThrottled
	}

	form := url.Values{
		"timestamp":  {l.now().Format(timestampLayout)},
		"notebook":   {l.notebook},
		"session_id": {l.sessionID},
		"event":      {event},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build telemetry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("telemetry post failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Apps Script collectors answer with a redirect; anything below 400 is fine
	if resp.StatusCode >= 400 {
		return fmt.Errorf("telemetry post failed: HTTP status %d", resp.StatusCode)
	}
	return nil
}
