package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/middleware"
	"github.com/SscSPs/cashdesk_backoffice/internal/platform/metrics"
)

const defaultNotifyTimeout = 5 * time.Second

// Dispatcher hands workflow events to the Notifier once the state change is committed.
// Delivery runs detached from the caller's context with its own deadline; failures are
// logged and counted, never returned.
type Dispatcher struct {
	notifier portssvc.Notifier
	timeout  time.Duration
	async    bool
	wg       sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithNotifyTimeout bounds each delivery.
func WithNotifyTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithSynchronousDelivery delivers inline instead of in a goroutine.
func WithSynchronousDelivery() DispatcherOption {
	return func(disp *Dispatcher) {
		disp.async = false
	}
}

// NewDispatcher creates a dispatcher. A nil notifier drops every event.
func NewDispatcher(notifier portssvc.Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{notifier: notifier, timeout: defaultNotifyTimeout, async: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Publish delivers event on a best-effort basis.
func (d *Dispatcher) Publish(ctx context.Context, event domain.Event) {
	if d == nil || d.notifier == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	logger := middleware.GetLoggerFromCtx(ctx)

	deliver := func() {
		deliveryCtx, cancel := context.WithTimeout(middleware.WithLogger(context.Background(), logger), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(deliveryCtx, event); err != nil {
			metrics.NotificationFailures.WithLabelValues(string(event.Name)).Inc()
			logger.Warn("Notification dropped",
				slog.String("event", string(event.Name)),
				slog.String("subject", event.Subject),
				slog.String("error", err.Error()))
			return
		}
		metrics.NotificationsSent.WithLabelValues(string(event.Name)).Inc()
	}

	if !d.async {
		deliver()
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		deliver()
	}()
}

// Wait blocks until in-flight deliveries finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}
