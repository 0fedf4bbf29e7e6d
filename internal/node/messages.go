package node

import "context"

// MessageKey is the state key under which user-facing messages are published.
const MessageKey = "widget_error"

// Message severities understood by the UI.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "danger"
)

// Message publishes a user-facing message for the node.
func Message(ctx context.Context, h Host, text, details, severity string) {
	var d any
	if details != "" {
		d = details
	}
	h.Notify(ctx, map[string]any{
		MessageKey: map[string]any{
			"text":    text,
			"details": d,
			"type":    severity,
		},
	})
}

func Info(ctx context.Context, h Host, text, details string) {
	Message(ctx, h, text, details, SeverityInfo)
}

func Warning(ctx context.Context, h Host, text, details string) {
	Message(ctx, h, text, details, SeverityWarning)
}

func Error(ctx context.Context, h Host, text, details string) {
	Message(ctx, h, text, details, SeverityError)
}

// ClearMessages removes any message shown for the node.
func ClearMessages(ctx context.Context, h Host) {
	h.Notify(ctx, map[string]any{MessageKey: nil})
}
