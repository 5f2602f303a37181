package domain

import (
	"fmt"
	"strings"
	"time"
)

type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityRented    Availability = "rented"
)

type Property struct {
	ID           int64        `json:"id"`
	Address      string       `json:"address"`
	Availability Availability `json:"availability"`
	Category     string       `json:"category"`
	Description  string       `json:"description"`
	Location     string       `json:"location"`
	Phone        string       `json:"phone"`
	Price        float64      `json:"price"`
	YearBuilt    int          `json:"year_built"`
	// CreatedBy is the owning user; it never changes after creation.
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreatePropertyRequest struct {
	Address     string  `json:"address"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Phone       string  `json:"phone"`
	Price       float64 `json:"price"`
	YearBuilt   int     `json:"year_built"`
}

func (r *CreatePropertyRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
	r.Category = strings.TrimSpace(r.Category)
	r.Location = strings.TrimSpace(r.Location)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *CreatePropertyRequest) Validate() error {
	if r.Address == "" {
		return fmt.Errorf("%w: address is required", ErrValidation)
	}
	if r.Category == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if r.Location == "" {
		return fmt.Errorf("%w: location is required", ErrValidation)
	}
	if r.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if r.YearBuilt <= 0 {
		return fmt.Errorf("%w: year built is required", ErrValidation)
	}
	return nil
}
