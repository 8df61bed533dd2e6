package lifetime

import (
	"context"
	"log/slog"
	"time"

	entityDomain "github.com/allisson/vaultemu/internal/entity/domain"
)

// Event describes a notify action that fired during a time shift.
type Event struct {
	ID          entityDomain.EntityID
	Kind        string
	Trigger     Trigger
	TriggeredAt time.Time
}

// Notifier receives notify events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event Event)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event Event) {
	f(ctx, event)
}

// LogNotifier logs every event at info level.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier writing to logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, event Event) {
	n.logger.InfoContext(ctx, "lifetime notification",
		slog.String("id", event.ID.String()),
		slog.String("kind", event.Kind),
		slog.String("trigger", event.Trigger.String()),
		slog.Time("triggered_at", event.TriggeredAt),
	)
}
