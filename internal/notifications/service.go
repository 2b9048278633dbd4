package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"systemqa/internal/config"
)

const userAgent = "systemqa-worker/0.1.0"

// Event identifies a notification kind.
type Event string

const (
	EventManualCompleted Event = "manual_completed"
	EventManualFailed    Event = "manual_failed"
	EventLeaseReclaimed  Event = "lease_reclaimed"
	EventTest            Event = "test"
)

// Payload carries event fields. Known keys: manualID, title, error, count.
type Payload map[string]any

// Service publishes worker events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventManualCompleted: cfg.Notifications.Completed,
			EventManualFailed:    cfg.Notifications.Failures,
			EventLeaseReclaimed:  cfg.Notifications.Reclaims,
			EventTest:            true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	id := payload.text("manualID")
	switch event {
	case EventManualCompleted:
		body := fmt.Sprintf("✅ Screenshots ready: %s", id)
		if title := payload.text("title"); title != "" {
			body = fmt.Sprintf("✅ Screenshots ready: %s\n%s", title, id)
		}
		return message{
			title: "systemqa - Manual Ready",
			body:  body,
			tags:  []string{"systemqa", "manual", "completed"},
		}, true
	case EventManualFailed:
		body := fmt.Sprintf("❌ Screenshot generation failed: %s", id)
		if reason := payload.text("error"); reason != "" {
			body += "\n" + reason
		}
		return message{
			title:    "systemqa - Manual Failed",
			body:     body,
			tags:     []string{"systemqa", "manual", "error"},
			priority: "high",
		}, true
	case EventLeaseReclaimed:
		return message{
			title: "systemqa - Leases Reclaimed",
			body:  fmt.Sprintf("Requeued %s manual(s) whose worker stopped heartbeating", payload.text("count")),
			tags:  []string{"systemqa", "lease", "reclaimed"},
		}, true
	case EventTest:
		return message{
			title:    "systemqa - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"systemqa", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
