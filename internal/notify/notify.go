// Package notify tells the operator about requests that failed with an
// internal error.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timelocker/tracker/internal/config"
)

// Subject is the subject line of failure notifications.
const Subject = "[Time Locker] request failed"

// Failure describes one failed request.
type Failure struct {
	RequestID string    `json:"requestId"`
	Method    string    `json:"method"`
	Route     string    `json:"route"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// NewFailure builds a Failure stamped with the current time. An empty
// requestID is replaced by a fresh one.
func NewFailure(requestID, method, route string, err error) Failure {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	f := Failure{
		RequestID: requestID,
		Method:    method,
		Route:     route,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		f.Error = err.Error()
	}
	return f
}

// Notifier delivers failure notifications.
type Notifier interface {
	Notify(ctx context.Context, f Failure) error
}

// Nop discards notifications.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Failure) error { return nil }

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, f Failure) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the notifiers enabled by cfg. ses may be nil when email is not
// configured. With nothing enabled the result is Nop.
func New(cfg config.NotifyConfig, ses SESAPI) Notifier {
	var m Multi
	if cfg.EmailFrom != "" && len(cfg.EmailTo) > 0 && ses != nil {
		m = append(m, NewEmail(ses, cfg.EmailFrom, cfg.EmailTo))
	}
	if cfg.WebhookURL != "" {
		m = append(m, NewWebhook(cfg.WebhookURL))
	}
	switch len(m) {
	case 0:
		zap.L().Info("notify: no failure notifier configured")
		return Nop{}
	case 1:
		return m[0]
	default:
		return m
	}
}
