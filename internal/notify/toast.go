// Package notify delivers user-visible toasts.  A Notifier is the single
// sink every failure and status message ends up in, whether it is printed
// to a terminal, logged, queued or pushed to connected dashboards.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Level is the severity shown with a toast.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toast is one notification.
type Toast struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// New builds a toast with a fresh id and the current UTC time.
func New(level Level, message string) Toast {
	return Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// Notifier dispatches toasts.  Implementations must not block for long and
// report their own delivery problems; callers never see them.
type Notifier interface {
	Notify(t Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

func (f NotifierFunc) Notify(t Toast) { f(t) }

type multi []Notifier

func (m multi) Notify(t Toast) {
	for _, n := range m {
		n.Notify(t)
	}
}

// Multi fans a toast out to every non-nil notifier, in order.
func Multi(notifiers ...Notifier) Notifier {
	out := make(multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
