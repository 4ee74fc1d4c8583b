// Package notify delivers order confirmations after the placement transaction
// commits. Delivery is best-effort: it runs detached from the request, with
// its own deadline and bounded retries, and a failure can never unwind the
// already-committed order.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/storefront-go/storefront/internal/domain/order"
	"github.com/storefront-go/storefront/internal/domain/user"
)

// Contact is the delivery target for an order confirmation.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Notifier sends a single order-placed notification. Implementations report
// delivery errors to the caller; retrying is the Dispatcher's job.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *order.Order, contact Contact) error
}

// LogNotifier records notifications in the log instead of delivering them.
// Used when no message broker is configured.
type LogNotifier struct {
	lg *zap.Logger
}

// NewLogNotifier returns a log-only Notifier.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	return &LogNotifier{lg: lg}
}

func (n *LogNotifier) OrderPlaced(_ context.Context, o *order.Order, contact Contact) error {
	n.lg.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("email", contact.Email),
		zap.String("total", o.GrandTotal.String()),
	)
	return nil
}

// Dispatcher implements order.Events. It resolves the owner's contact info and
// hands the notification to the Notifier on a goroutine detached from the
// request lifetime, so caller cancellation never affects a committed order's
// notification and a slow broker never blocks the response.
type Dispatcher struct {
	notifier Notifier
	users    user.Repository
	lg       *zap.Logger

	timeout  time.Duration
	attempts int

	wg sync.WaitGroup
}

// DispatcherConfig bounds a single notification's lifetime.
type DispatcherConfig struct {
	// Timeout covers contact lookup plus all delivery attempts.
	Timeout time.Duration
	// Attempts is the maximum number of delivery tries.
	Attempts int
}

// NewDispatcher creates a Dispatcher delivering through the given Notifier.
func NewDispatcher(notifier Notifier, users user.Repository, lg *zap.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	return &Dispatcher{
		notifier: notifier,
		users:    users,
		lg:       lg,
		timeout:  cfg.Timeout,
		attempts: cfg.Attempts,
	}
}

var _ order.Events = (*Dispatcher)(nil)

// OrderPlaced fires the confirmation for a committed order. It returns
// immediately; delivery happens in the background.
func (d *Dispatcher) OrderPlaced(o *order.Order) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(o)
	}()
}

// Close waits for in-flight notifications to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(o *order.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	lg := d.lg.With(zap.String("order_id", o.ID))

	owner, err := d.users.GetByID(ctx, o.CreatedBy)
	if err != nil {
		lg.Warn("Order notification skipped: owner lookup failed", zap.Error(err))
		return
	}
	contact := Contact{Name: owner.FullName, Email: owner.Email}

	backoff := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err = d.notifier.OrderPlaced(ctx, o, contact)
		if err == nil {
			return
		}
		if attempt >= d.attempts || ctx.Err() != nil {
			break
		}

		lg.Warn("Order notification attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			lg.Error("Order notification abandoned", zap.Error(ctx.Err()))
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	lg.Error("Order notification failed", zap.Int("attempts", d.attempts), zap.Error(err))
}
