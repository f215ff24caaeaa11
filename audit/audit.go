// Package audit records security-relevant events emitted by the support
// flows: recovery requests, password resets, confirmations, and social
// account linking.
package audit

import (
	"context"
	"time"
)

// Event is a structured record of one flow outcome.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`       // e.g. "identity.recovery.request"
	ActorID   string    `json:"actor_id"`   // who triggered the action, when known
	SubjectID string    `json:"subject_id"` // the affected account
	Status    string    `json:"status"`     // "success", "failure", "conflict"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists audit events. Implementations must tolerate being called on
// every flow outcome; failures are logged by the caller, never propagated.
type Store interface {
	SaveEvent(ctx context.Context, event *Event) error
}
