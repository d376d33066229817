// Package mailer delivers transactional email through an HTTP mail provider.
package mailer

import (
	"context"

	"github.com/harborline/fleetd/internal/httputil"
	"github.com/harborline/fleetd/internal/logging"
)

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Client sends mail through a JSON HTTP endpoint.
type Client struct {
	client *httputil.Client
	from   string
	log    *logging.Logger
}

// New creates a Client. endpoint is the provider's send URL.
func New(endpoint, apiKey, from string, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewDefault("mailer")
	}
	return &Client{
		client: httputil.NewClient(httputil.ClientConfig{BaseURL: endpoint, APIKey: apiKey}),
		from:   from,
		log:    log,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send posts the message to the provider.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	resp, err := c.client.Post(ctx, "", sendRequest{From: c.from, To: to, Subject: subject, Body: body})
	if err != nil {
		return err
	}
	if err := httputil.DecodeResponse(resp, nil); err != nil {
		return err
	}
	c.log.WithField("to", to).Debug("mail delivered")
	return nil
}

// Noop discards messages. Used when no mail provider is configured; codes
// still land in the store so local flows keep working.
type Noop struct {
	log *logging.Logger
}

// NewNoop creates a Noop sender.
func NewNoop(log *logging.Logger) *Noop {
	if log == nil {
		log = logging.NewDefault("mailer")
	}
	return &Noop{log: log}
}

func (n *Noop) Send(_ context.Context, to, subject, _ string) error {
	n.log.WithFields(map[string]interface{}{"to": to, "subject": subject}).Info("mail delivery skipped; no provider configured")
	return nil
}

var _ Sender = (*Client)(nil)
var _ Sender = (*Noop)(nil)
