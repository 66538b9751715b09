// Package notify delivers user notifications. The store keeps the
// notification rows; a Sink decides what happens beyond that.
package notify

import (
	"log"

	"github.com/taskmaster-hq/bugtracker/internal/models"
)

// Sink receives every notification created by the services. Implementations
// must not block; delivery failures are the sink's problem, never the
// caller's.
type Sink interface {
	Notify(n *models.Notification)
}

// LogSink writes notifications to the process log. It is the default sink
// wired by the entry point.
type LogSink struct{}

func (LogSink) Notify(n *models.Notification) {
	log.Printf("notification: %s for user %d (task #%d)", n.Title, n.UserID, n.TaskID)
}

// NopSink discards notifications. Used by tests.
type NopSink struct{}

func (NopSink) Notify(*models.Notification) {}
