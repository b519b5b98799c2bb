package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ForwardPayload is the notification body sent to a requester's callback URL
// after a devis status change is durably committed.
type ForwardPayload struct {
	EnvelopeID string `json:"envelope_id"`
	DevisID    uint   `json:"devis_id"`
	Status     string `json:"status"`
	SignedAt   string `json:"signed_at,omitempty"`
}

// Forwarder delivers best-effort notifications to third-party callback URLs.
type Forwarder interface {
	Forward(ctx context.Context, url string, payload ForwardPayload) error
}

// HTTPForwarder posts JSON notifications with a bounded timeout.
type HTTPForwarder struct {
	client *http.Client
}

// NewHTTPForwarder builds a forwarder with the given per-call timeout.
func NewHTTPForwarder(timeout time.Duration) *HTTPForwarder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPForwarder{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPForwarder) Forward(ctx context.Context, url string, payload ForwardPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding forward payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("forwarding notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("forward target returned %d", resp.StatusCode)
	}
	return nil
}
