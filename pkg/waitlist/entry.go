package waitlist

import (
	"strings"
	"time"
)

// BikeOwnership records whether a signup owns a bike.
type BikeOwnership string

const (
	OwnsBike     BikeOwnership = "yes"
	NoBike       BikeOwnership = "no"
	PlanningBike BikeOwnership = "planning"
)

// Valid reports whether b is one of the known answers.
func (b BikeOwnership) Valid() bool {
	switch b {
	case OwnsBike, NoBike, PlanningBike:
		return true
	}
	return false
}

// Entry is one waitlist signup.
type Entry struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	City          string        `json:"city"`
	BikeOwnership BikeOwnership `json:"bike_ownership"`
	CreatedAt     time.Time     `json:"created_at"`
}

// SignupRequest is the raw form submission.
type SignupRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	City          string `json:"city"`
	BikeOwnership string `json:"bike_ownership"`
}

// Normalize trims whitespace and lowercases the email.
func (r SignupRequest) Normalize() SignupRequest {
	return SignupRequest{
		Name:          strings.TrimSpace(r.Name),
		Email:         strings.ToLower(strings.TrimSpace(r.Email)),
		City:          strings.TrimSpace(r.City),
		BikeOwnership: strings.ToLower(strings.TrimSpace(r.BikeOwnership)),
	}
}
