// Package queue defines message payloads exchanged over the message broker
// and the background consumer that delivers them.
package queue

import (
    "time"

    "github.com/khIbrahim/popcornon/internal/notify"
)

// ToastQueueName is the durable queue toasts travel through.
const ToastQueueName = "notification.toast"

// ToastEvent is a toast on the wire.  Origin names the process that
// raised it, e.g. "api".
type ToastEvent struct {
    ID        string       `json:"id"`
    Level     notify.Level `json:"level"`
    Message   string       `json:"message"`
    CreatedAt time.Time    `json:"created_at"`
    Origin    string       `json:"origin,omitempty"`
}

// EventFromToast wraps t for publishing.
func EventFromToast(t notify.Toast, origin string) ToastEvent {
    return ToastEvent{ID: t.ID, Level: t.Level, Message: t.Message, CreatedAt: t.CreatedAt, Origin: origin}
}

// Toast unwraps the event.
func (e ToastEvent) Toast() notify.Toast {
    return notify.Toast{ID: e.ID, Level: e.Level, Message: e.Message, CreatedAt: e.CreatedAt}
}
