package models

import "time"

// RegistrationStatus is the lifecycle state of an event registration.
type RegistrationStatus string

const (
	StatusUnsubmitted RegistrationStatus = "Unsubmitted"
	StatusUnconfirmed RegistrationStatus = "Unconfirmed"
	StatusValid       RegistrationStatus = "Valid"
	StatusCancelled   RegistrationStatus = "Cancelled"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []RegistrationStatus{
	StatusUnsubmitted,
	StatusUnconfirmed,
	StatusValid,
	StatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s RegistrationStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Registration represents a signup for an event.
type Registration struct {
	ID      string             `json:"id" db:"id"`
	EventID string             `json:"event_id" db:"event_id"`
	Name    string             `json:"name" db:"name"`
	Email   string             `json:"email" db:"email"`
	Status  RegistrationStatus `json:"status" db:"status"`
	Created time.Time          `json:"created" db:"created"`
	Updated time.Time          `json:"updated" db:"updated"`
}

// Age is how long ago the registration was created, relative to now.
func (r Registration) Age(now time.Time) time.Duration {
	return now.Sub(r.Created)
}

// CreateRegistrationRequest is the request body for starting a registration.
type CreateRegistrationRequest struct {
	EventID string `json:"event_id" binding:"required" example:"summer-fair-2026"`
	Name    string `json:"name" binding:"required" example:"Jane Doe"`
	Email   string `json:"email" binding:"required,email" example:"jane@example.com"`
}
