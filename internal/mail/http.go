package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPTransport posts messages to a transactional mail API
type HTTPTransport struct {
	client *resty.Client
	from   string
}

type apiMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// NewHTTPTransport creates a transport posting to baseURL/messages
func NewHTTPTransport(baseURL, apiKey, from string) *HTTPTransport {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPTransport{client: client, from: from}
}

// Send implements Transport
func (t *HTTPTransport) Send(ctx context.Context, msg Message) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(apiMessage{
			From:    t.from,
			To:      msg.To,
			Subject: msg.Subject,
			Text:    msg.Body,
			HTML:    msg.HTMLBody,
		}).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("mail api request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail api status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
