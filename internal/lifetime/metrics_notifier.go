package lifetime

import (
	"context"

	"github.com/allisson/vaultemu/internal/metrics"
)

// MetricsNotifier counts notify events per entity kind and trigger before handing them to next.
type MetricsNotifier struct {
	next    Notifier
	metrics metrics.BusinessMetrics
}

// NewMetricsNotifier wraps next with event counting. next may be nil.
func NewMetricsNotifier(next Notifier, m metrics.BusinessMetrics) *MetricsNotifier {
	return &MetricsNotifier{next: next, metrics: m}
}

// Notify implements Notifier.
func (n *MetricsNotifier) Notify(ctx context.Context, event Event) {
	n.metrics.RecordLifetimeEvent(ctx, event.Kind, string(ActionNotify), string(event.Trigger.Kind))
	if n.next != nil {
		n.next.Notify(ctx, event)
	}
}
