package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"showroom"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

type message struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// PostMessage sends text to the incoming webhook. An empty channel leaves the
// webhook's default in place.
func (c *Client) PostMessage(ctx context.Context, channel string, text string) error {
	payload, err := json.Marshal(message{Channel: channel, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("failed to post message: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return nil
}

// Notifier posts an alert to a fixed channel whenever a recommendation had to fall
// back because the reasoning backend timed out or failed.
type Notifier struct {
	client  showroom.SlackClient
	channel string
}

func NewNotifier(client showroom.SlackClient, channel string) *Notifier {
	return &Notifier{client: client, channel: channel}
}

const maxDetailLen = 300

func (n *Notifier) NotifyDegraded(ctx context.Context, query, reason, detail string) error {
	var b strings.Builder
	fmt.Fprintf(&b, ":warning: Recommendation fell back (%s)\n", reason)
	fmt.Fprintf(&b, "> query: %s", query)
	if detail != "" {
		if r := []rune(detail); len(r) > maxDetailLen {
			detail = string(r[:maxDetailLen]) + "..."
		}
		fmt.Fprintf(&b, "\n> detail: `%s`", detail)
	}
	return n.client.PostMessage(ctx, n.channel, b.String())
}
