// Package customer holds the accounts Pulseboard computes health for.
//
// The cached health_score on a customer is a derived projection, not a
// source of truth: it is always recomputable from the event history and
// the current time, and is refreshed opportunistically whenever a score
// is computed (plus periodically by the snapshot worker).
package customer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Segment is the customer size taxonomy. Kept intentionally simple.
type Segment string

const (
	SegmentStartup    Segment = "startup"
	SegmentSMB        Segment = "smb"
	SegmentEnterprise Segment = "enterprise"
)

// Valid reports whether s is a known segment.
func (s Segment) Valid() bool {
	switch s {
	case SegmentStartup, SegmentSMB, SegmentEnterprise:
		return true
	}
	return false
}

// Store errors.
var (
	ErrNotFound = errors.New("customer not found")
	ErrExists   = errors.New("customer already exists")
)

// Customer is an account we compute health for.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Segment   Segment   `json:"segment"`
	Seats     int       `json:"seats"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`

	// HealthScore is the cached 0-100 total from the last computation.
	// Derived data only — see package doc.
	HealthScore float64 `json:"healthScore"`
}

// Validate checks the static attributes set at creation time.
func (c *Customer) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if !c.Segment.Valid() {
		return fmt.Errorf("unknown segment %q", c.Segment)
	}
	if c.Seats < 0 {
		return errors.New("seats must be >= 0")
	}
	return nil
}

// Store persists customers.
type Store interface {
	// Create inserts a new customer. Names are unique; ErrExists on conflict.
	Create(ctx context.Context, c *Customer) error

	// Get returns a customer by ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Customer, error)

	// List returns customers ordered by ID ascending. An empty segment
	// returns all customers; otherwise only that segment.
	List(ctx context.Context, segment Segment) ([]*Customer, error)

	// UpdateHealthScore refreshes the cached score. Last-writer-wins;
	// a stale value is always safely recomputable.
	UpdateHealthScore(ctx context.Context, id int64, score float64) error
}
