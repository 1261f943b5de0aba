package domain

import "time"

const (
	TypeWorkshop    = "Workshop"
	TypeCompetition = "Competition"
	TypeSeminar     = "Seminar"
	TypeMeeting     = "Meeting"
	TypeSocial      = "Social Event"
	TypeSports      = "Sports Event"
	TypeOther       = "Other"
)

type Event struct {
	ID                string    `json:"-"`
	Title             string    `json:"title" validate:"required"`
	Description       string    `json:"description"`
	Date              Date      `json:"date" validate:"required"`
	Time              string    `json:"time"`
	Location          string    `json:"location"`
	ClubID            string    `json:"clubId" validate:"required"`
	ClubName          string    `json:"clubName"`
	Category          string    `json:"category"`
	RegistrationLink  string    `json:"registrationLink,omitempty"`
	RegisteredUserIDs []string  `json:"registeredUserIds"`
	RegistrationCount int       `json:"registrationCount"`
	IsFeatured        bool      `json:"isFeatured"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IsUpcoming reports whether the event falls on or after the calendar date of now.
func (e Event) IsUpcoming(now time.Time) bool {
	return !e.Date.Before(DateOf(now))
}

// HasExternalRegistration reports whether sign-up happens outside the app.
func (e Event) HasExternalRegistration() bool {
	return e.RegistrationLink != ""
}

type NewEvent struct {
	Title            string `json:"title" validate:"required"`
	Description      string `json:"description" validate:"required"`
	Date             Date   `json:"date" validate:"required"`
	Time             string `json:"time" validate:"required"`
	Location         string `json:"location" validate:"required"`
	ClubID           string `json:"clubId" validate:"required"`
	ClubName         string `json:"clubName"`
	Category         string `json:"category" validate:"required"`
	RegistrationLink string `json:"registrationLink,omitempty"`
	IsFeatured       bool   `json:"isFeatured"`
}
