package push

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/herdbook/internal/config"
	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// Client forwards urgent notifications to an external alert channel.
type Client interface {
	Push(ctx context.Context, notification models.Notification) error
}

// WebhookClient is a resty-backed implementation of Client posting to a
// configured webhook endpoint.
type WebhookClient struct {
	httpClient *resty.Client
	webhookURL string
}

// NewClient builds a push client using the provided configuration values.
func NewClient(cfg config.PushConfig) *WebhookClient {
	restyClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	if cfg.AuthToken != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.AuthToken))
	}

	return &WebhookClient{
		httpClient: restyClient,
		webhookURL: cfg.WebhookURL,
	}
}

type pushPayload struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
	Link     string `json:"link,omitempty"`
}

type pushError struct {
	Error string `json:"error"`
}

// Push posts the notification to the webhook endpoint.
func (c *WebhookClient) Push(ctx context.Context, n models.Notification) error {
	payload := pushPayload{
		Title:    n.Title,
		Message:  n.Message,
		Priority: string(n.Priority),
		Link:     n.Link,
	}

	apiErr := new(pushError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetError(apiErr).
		Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("push notification: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Error
		if message == "" {
			message = resp.Status()
		}
		return fmt.Errorf("push webhook error: code=%d, message=%s", resp.StatusCode(), message)
	}

	return nil
}
