// Package event defines the raw activity records that drive health scoring.
//
// Events are immutable facts: they are written once at ingestion and never
// mutated or deleted by the scoring engine. Each type carries at most one
// payload field — feature_use has a feature key, api_call has a numeric
// value, everything else has neither. That invariant is enforced at the
// ingestion boundary and re-checked by the scoring engine.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Type enumerates the kinds of events that affect health scoring.
type Type string

const (
	TypeLogin               Type = "login"
	TypeFeatureUse          Type = "feature_use"
	TypeAPICall             Type = "api_call"
	TypeSupportTicketOpened Type = "support_ticket_opened"
	TypeInvoicePaid         Type = "invoice_paid"
	TypeInvoiceLate         Type = "invoice_late"
)

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case TypeLogin, TypeFeatureUse, TypeAPICall,
		TypeSupportTicketOpened, TypeInvoicePaid, TypeInvoiceLate:
		return true
	}
	return false
}

// ErrNotFound is returned when an event does not exist.
var ErrNotFound = errors.New("event not found")

// Event is a single time-stamped activity record for a customer.
type Event struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customerId"`
	Type       Type      `json:"type"`
	FeatureKey string    `json:"featureKey,omitempty"` // set iff Type == feature_use
	Value      *float64  `json:"value,omitempty"`      // set iff Type == api_call
	Timestamp  time.Time `json:"ts"`
}

// Validate enforces the per-type payload invariant:
//   - feature_use requires FeatureKey and forbids Value
//   - api_call requires Value >= 0 and forbids FeatureKey
//   - every other type forbids both
func (e *Event) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}

	switch e.Type {
	case TypeFeatureUse:
		if e.FeatureKey == "" {
			return errors.New("feature_key is required for type=feature_use")
		}
		if e.Value != nil {
			return errors.New("value must be unset for type=feature_use")
		}
	case TypeAPICall:
		if e.Value == nil {
			return errors.New("value is required for type=api_call")
		}
		if *e.Value < 0 {
			return errors.New("value must be >= 0 for type=api_call")
		}
		if e.FeatureKey != "" {
			return errors.New("feature_key must be unset for type=api_call")
		}
	default:
		if e.FeatureKey != "" {
			return fmt.Errorf("feature_key must be unset for type=%s", e.Type)
		}
		if e.Value != nil {
			return fmt.Errorf("value must be unset for type=%s", e.Type)
		}
	}

	return nil
}

// Store persists events and serves time-windowed reads for scoring.
type Store interface {
	// Insert records a new event. The store assigns ID; Timestamp must be set.
	Insert(ctx context.Context, ev *Event) error

	// ListByCustomer returns events for a customer with Timestamp in
	// [from, to], ordered by timestamp ascending, ties broken by
	// insertion order (ascending ID).
	ListByCustomer(ctx context.Context, customerID int64, from, to time.Time) ([]*Event, error)

	// CountByCustomer returns the number of events recorded for a customer.
	CountByCustomer(ctx context.Context, customerID int64) (int, error)
}
