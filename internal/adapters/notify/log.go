package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
)

// LogNotifier writes events to the structured log. Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

var _ portssvc.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event domain.Event) error {
	audience := make([]string, 0, len(event.Audience))
	for _, role := range event.Audience {
		audience = append(audience, string(role))
	}
	n.logger.InfoContext(ctx, "Workflow event",
		slog.String("event", string(event.Name)),
		slog.String("subject", event.Subject),
		slog.String("audience", strings.Join(audience, ",")),
		slog.Time("occurredAt", event.OccurredAt))
	return nil
}
