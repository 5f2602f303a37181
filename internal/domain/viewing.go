package domain

import (
	"fmt"
	"strings"
	"time"
)

// ViewingRequest is a pending request by a user to view a property.
// Owner is snapshotted from the property's creator when the request is
// made and never refreshed. A decision moves the record into a
// terminal table; pending rows are never flipped in place.
type ViewingRequest struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`

	PropertyID int64 `json:"property_id"`
	OwnerID    int64 `json:"owner_id"`

	// PreferredDate is date-only: truncated to midnight UTC on the way in.
	PreferredDate time.Time `json:"preferred_date"`
	ViewingType   string    `json:"viewing_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Decision marks a terminal viewing record as accepted or rejected.
type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// DecidedRequest is the terminal record created when an owner accepts
// or rejects a pending viewing request. It copies the pending fields
// and adds the decision timestamp.
type DecidedRequest struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	PropertyID    int64     `json:"property_id"`
	OwnerID       int64     `json:"owner_id"`
	PreferredDate time.Time `json:"preferred_date"`
	ViewingType   string    `json:"viewing_type"`
	Decision      Decision  `json:"decision"`
	DecidedAt     time.Time `json:"decided_at"`
}

type CreateViewingRequest struct {
	PropertyID    int64     `json:"property_id"`
	PreferredDate time.Time `json:"preferred_date"`
	ViewingType   string    `json:"viewing_type"`
}

func (r *CreateViewingRequest) Normalize() {
	r.ViewingType = strings.TrimSpace(r.ViewingType)
}

func (r *CreateViewingRequest) Validate() error {
	if r.PropertyID <= 0 {
		return fmt.Errorf("%w: property id is required", ErrValidation)
	}
	if r.PreferredDate.IsZero() {
		return fmt.Errorf("%w: preferred date is required", ErrValidation)
	}
	if r.ViewingType == "" {
		return fmt.Errorf("%w: viewing type is required", ErrValidation)
	}
	return nil
}

// NormalizeDate truncates a preferred date to midnight UTC. Storage and
// comparisons are date-only.
func NormalizeDate(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}
