package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeEmailSender struct {
	mu       sync.Mutex
	welcomes []string
	cancels  []string
	err      error
}

func (f *fakeEmailSender) SendWelcomeEmail(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, email)
	return f.err
}

func (f *fakeEmailSender) SendCancellationEmail(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, email)
	return f.err
}

func TestNotifierDelivers(t *testing.T) {
	sender := &fakeEmailSender{}
	n := NewNotifier(sender, 1)

	n.NotifyWelcome("regis@example.com", "Regis")
	n.NotifyCancellation("regis@example.com", "Regis")
	n.Stop()

	assert.Equal(t, []string{"regis@example.com"}, sender.welcomes)
	assert.Equal(t, []string{"regis@example.com"}, sender.cancels)
}

func TestNotifierSwallowsFailures(t *testing.T) {
	sender := &fakeEmailSender{err: errors.New("smtp down")}
	n := NewNotifier(sender, 1)

	// Must not panic or surface anything to the caller.
	n.NotifyWelcome("regis@example.com", "Regis")
	n.Stop()

	assert.Len(t, sender.welcomes, 1)
}
