// Package notify delivers citizen-facing notifications. The portal
// runs without an SMTP relay in most deployments, so the default
// implementation just records what would have been sent.
package notify

import (
	"context"
	"log/slog"
)

// Notifier sends a message to a citizen about their complaint.
type Notifier interface {
	ComplaintFiled(ctx context.Context, email, trackingID string) error
	StatusChanged(ctx context.Context, email, trackingID, newStatus string) error
}

// LogNotifier logs notifications instead of delivering them.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) ComplaintFiled(ctx context.Context, email, trackingID string) error {
	if email == "" {
		return nil
	}
	n.log.InfoContext(ctx, "notification: complaint filed",
		"email", email, "tracking_id", trackingID)
	return nil
}

func (n *LogNotifier) StatusChanged(ctx context.Context, email, trackingID, newStatus string) error {
	if email == "" {
		return nil
	}
	n.log.InfoContext(ctx, "notification: status changed",
		"email", email, "tracking_id", trackingID, "status", newStatus)
	return nil
}
