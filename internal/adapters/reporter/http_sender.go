package reporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ContentTypeJSON is the content type of every report body
const ContentTypeJSON = "application/json; charset=utf-8"

// HTTPSender POSTs reports to a collector endpoint
type HTTPSender struct {
	client   *http.Client
	endpoint string
}

// NewHTTPSender creates a sender for an http(s) endpoint
func NewHTTPSender(endpoint string, timeout time.Duration) (*HTTPSender, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid report endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid report endpoint %q: want an http(s) URL", endpoint)
	}

	return &HTTPSender{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}, nil
}

// Send posts the payload and discards the response body
func (s *HTTPSender) Send(ctx context.Context, id string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build report request: %w", err)
	}
	req.Header.Set("Content-Type", ContentTypeJSON)
	req.Header.Set("X-Report-ID", id)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post report: %w", err)
	}
	defer resp.Body.Close()

	// The collector's answer carries nothing we use
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("failed to read report response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector responded with status %s", resp.Status)
	}

	return nil
}
