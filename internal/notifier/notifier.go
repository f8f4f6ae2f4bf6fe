// Package notifier posts operator messages to a Slack incoming webhook.
// Without a configured webhook it degrades to log-only, so the pipeline
// never depends on Slack being reachable.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// Messages longer than this are split into numbered chunks.
const chunkLimit = 2000

const defaultTimeout = 10 * time.Second

// Notifier delivers messages to one webhook URL.
type Notifier struct {
	webhookURL string
	username   string
	timeout    time.Duration
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithTimeout sets the per-post timeout.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) { n.timeout = d }
}

// New creates a Notifier. An empty webhookURL yields a log-only notifier.
func New(webhookURL, username string, opts ...Option) *Notifier {
	n := &Notifier{
		webhookURL: webhookURL,
		username:   username,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// Notify posts a message, splitting it into numbered chunks when it exceeds
// the per-message limit. Empty messages are silently dropped.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return nil
	}
	if !n.Enabled() {
		return nil
	}

	chunks := toChunks(message, chunkLimit)
	for i, chunk := range chunks {
		text := chunk
		if len(chunks) > 1 {
			text = fmt.Sprintf("(%d/%d)\n%s", i+1, len(chunks), chunk)
		}

		postCtx, cancel := context.WithTimeout(ctx, n.timeout)
		err := slack.PostWebhookContext(postCtx, n.webhookURL, &slack.WebhookMessage{
			Username: n.username,
			Text:     text,
		})
		cancel()
		if err != nil {
			return fmt.Errorf("post webhook: %w", err)
		}
	}
	return nil
}

// LogNotify logs the message locally and posts it in the background. Webhook
// failures are logged, never surfaced.
func (n *Notifier) LogNotify(message string) {
	slog.Info(message)
	if !n.Enabled() {
		return
	}
	go func() {
		if err := n.Notify(context.Background(), message); err != nil {
			slog.Error("Notify failed", "error", err)
		}
	}()
}

// toChunks splits s into rune-safe pieces of at most size runes.
func toChunks(s string, size int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
