// Package notify is the toast surface flows report outcomes to.
package notify

import (
	"sync"

	"github.com/mark3labs/stepguard/internal/logger"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Notification is one toast.
type Notification struct {
	Kind        Kind
	Message     string
	Description string
}

// Notifier receives toasts. Description may be empty.
type Notifier interface {
	Notify(kind Kind, message, description string)
}

// Func adapts a function to Notifier.
type Func func(kind Kind, message, description string)

// Notify implements Notifier.
func (f Func) Notify(kind Kind, message, description string) {
	f(kind, message, description)
}

// Log writes notifications to the package logger.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(kind Kind, message, description string) {
	switch kind {
	case KindError:
		logger.Error("toast: %s %s", message, description)
	case KindWarning:
		logger.Warn("toast: %s %s", message, description)
	default:
		logger.Info("toast (%s): %s %s", kind, message, description)
	}
}

// Discard drops every notification.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(Kind, string, string) {}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu   sync.Mutex
	seen []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(kind Kind, message, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, Notification{Kind: kind, Message: message, Description: description})
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.seen))
	copy(out, r.seen)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return Notification{}, false
	}
	return r.seen[len(r.seen)-1], true
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = nil
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(kind Kind, message, description string) {
	for _, n := range m {
		if n != nil {
			n.Notify(kind, message, description)
		}
	}
}
