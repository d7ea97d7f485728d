package streamers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/matflow/matflow/internal/flow"
)

// WebhookStreamer delivers frame events via HTTP POST to a fixed URL.
type WebhookStreamer struct {
	id      string
	url     string
	client  *http.Client
	headers map[string]string
}

// NewWebhookStreamer creates a new webhook streamer.
func NewWebhookStreamer(id, url string) *WebhookStreamer {
	return &WebhookStreamer{
		id:      id,
		url:     url,
		client:  &http.Client{Timeout: 5 * time.Second},
		headers: make(map[string]string),
	}
}

// SetHeader sets a custom header to include in webhook requests.
func (s *WebhookStreamer) SetHeader(key, value string) {
	if s.headers == nil {
		s.headers = make(map[string]string)
	}
	s.headers[key] = value
}

// ID returns the streamer ID
func (s *WebhookStreamer) ID() string {
	return s.id
}

// Type returns the streamer type
func (s *WebhookStreamer) Type() string {
	return "webhook"
}

// Send posts the frame event to the webhook URL.
func (s *WebhookStreamer) Send(ctx context.Context, event flow.FrameEvent) error {
	jsonData, err := event.JSON()
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Close closes the streamer (no-op for webhook).
func (s *WebhookStreamer) Close() error {
	return nil
}
