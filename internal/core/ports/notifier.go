package ports

import "context"

// Notifier pushes opaque events to connected realtime clients. NotifyAgent
// targets the logical channel of a single agent; NotifyAll reaches every
// connected client. Implementations must be safe for concurrent use.
type Notifier interface {
	NotifyAgent(ctx context.Context, agentID string, event any) error
	NotifyAll(ctx context.Context, event any) error
}
