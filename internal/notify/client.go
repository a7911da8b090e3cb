// Package notify pushes a run-completion notice to an ntfy topic.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
}

func NewClient(baseURL, topic string, enabled bool) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		topic:   topic,
		enabled: enabled,
	}
}

// NotifyRunComplete posts the run summary to the configured topic.
// Delivery failures are logged as warnings, never returned.
func (c *Client) NotifyRunComplete(ctx context.Context, summary string) {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	log.Debug().
		Str("url", url).
		Msg("Sending run-complete notification")

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBufferString(summary))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build notification request")
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "MTG price run complete")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to send notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Warn().
			Int("status_code", resp.StatusCode).
			Msg("Notification rejected")
		return
	}

	log.Debug().
		Int("status_code", resp.StatusCode).
		Msg("Notification sent")
}
