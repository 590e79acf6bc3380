package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

type webhookPayload struct {
	Subject string `json:"subject"`
	Failure
}

// Webhook posts failure notifications as JSON.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook notifier posting to url.
func NewWebhook(url string) *Webhook {
	return &Webhook{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, f Failure) error {
	payload, err := json.Marshal(webhookPayload{Subject: Subject, Failure: f})
	if err != nil {
		return eris.Wrap(err, "notify: marshal failure")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
