package flow

import (
	"time"

	"github.com/google/uuid"
)

// Terminal is satisfied by every Outcome regardless of its value type
type Terminal interface {
	// ID identifies the outcome
	ID() uuid.UUID
	// CreatedAt time creation (UTC)
	CreatedAt() time.Time
	// Status returns the terminal state
	Status() Status
	// Err returns the cancellation reason or the failure, nil when completed
	Err() error
}

// Progress receives processed-item increments
type Progress interface {
	Add(n int64)
}

// NopProgress discards increments.
type NopProgress struct{}

func (NopProgress) Add(int64) {}

var _ Terminal = Outcome[struct{}]{}
