package notify

import "context"

// Notifier delivers a short human-readable message somewhere people look.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}
