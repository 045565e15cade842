package bookeo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Webhook is a registered callback subscription on the provider side.
type Webhook struct {
	ID     string `json:"id"`
	Domain string `json:"domain"`
	Type   string `json:"type"`
	URL    string `json:"url"`
}

type webhooksPage struct {
	Data []Webhook `json:"data"`
}

// ListWebhooks returns the callbacks currently registered for this API key.
func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	var page webhooksPage
	if err := c.do(ctx, http.MethodGet, "/webhooks", nil, nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// RegisterWebhook subscribes callbackURL to one domain/type pair, e.g.
// ("bookings", "created"). The provider answers 409 when the subscription
// already exists; callers may treat that as success.
func (c *Client) RegisterWebhook(ctx context.Context, domain, eventType, callbackURL string) (Webhook, error) {
	callbackURL = strings.TrimRight(strings.TrimSpace(callbackURL), "/")
	if !strings.HasPrefix(callbackURL, "https://") {
		return Webhook{}, fmt.Errorf("webhook url must use https: %q", callbackURL)
	}

	body, err := json.Marshal(Webhook{Domain: domain, Type: eventType, URL: callbackURL})
	if err != nil {
		return Webhook{}, err
	}

	var out Webhook
	if err := c.do(ctx, http.MethodPost, "/webhooks", nil, body, &out); err != nil {
		return Webhook{}, err
	}
	return out, nil
}

// RegisterBookingWebhooks subscribes the created and updated events for the
// bookings domain, tolerating already-registered subscriptions.
func (c *Client) RegisterBookingWebhooks(ctx context.Context, callbackURL string) error {
	for _, eventType := range []string{"created", "updated"} {
		if _, err := c.RegisterWebhook(ctx, "bookings", eventType, callbackURL); err != nil {
			if strings.Contains(err.Error(), "status 409") {
				continue
			}
			return fmt.Errorf("register bookings/%s: %w", eventType, err)
		}
	}
	return nil
}
