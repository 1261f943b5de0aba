package domain

import "time"

const RegistrationStatusRegistered = "registered"

// Registration is an append-only audit record of one user registering for one event.
type Registration struct {
	ID        string    `json:"-"`
	EventID   string    `json:"eventId" validate:"required"`
	UserID    string    `json:"userId" validate:"required"`
	UserName  string    `json:"userName"`
	UserEmail string    `json:"userEmail"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
