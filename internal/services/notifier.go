package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/rzaleman/taskman-be/internal/worker"
)

// Notifier dispatches lifecycle email off the request path. Deliveries run
// on a small worker pool; failures are logged and swallowed, never surfaced
// to the request that triggered them.
type Notifier struct {
	emails EmailSender
	pool   *worker.Pool
}

// NewNotifier creates a Notifier backed by n delivery workers.
func NewNotifier(emails EmailSender, n int) *Notifier {
	return &Notifier{emails: emails, pool: worker.NewPool(n)}
}

// NotifyWelcome fires the signup welcome email.
func (n *Notifier) NotifyWelcome(email, name string) {
	n.submit("welcome", email, n.emails.SendWelcomeEmail, name)
}

// NotifyCancellation fires the account-deletion goodbye email.
func (n *Notifier) NotifyCancellation(email, name string) {
	n.submit("cancellation", email, n.emails.SendCancellationEmail, name)
}

func (n *Notifier) submit(kind, email string, send func(context.Context, string, string) error, name string) {
	n.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := send(ctx, email, name); err != nil {
			log.Warn().Err(err).Str("type", kind).Str("to", email).Msg("Failed to deliver notification email")
		}
	})
}

// Stop waits for in-flight deliveries to finish.
func (n *Notifier) Stop() {
	n.pool.Stop()
}
