package services

import (
	"context"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
)

// SettingsProvider returns current exchange rates and the commission floor.
// Implementations must not cache across operations.
type SettingsProvider interface {
	Current(ctx context.Context) (domain.Settings, error)
}

// Notifier delivers an event to interested roles. The engine only looks at the
// returned error to log it.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event) error
}
