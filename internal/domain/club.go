package domain

import "time"

const (
	CategoryTechnical        = "Technical"
	CategoryCultural         = "Cultural"
	CategorySports           = "Sports"
	CategorySocial           = "Social Service"
	CategoryEntrepreneurship = "Entrepreneurship"
	CategoryAcademic         = "Academic"
	CategoryOther            = "Other"
)

type Club struct {
	ID           string    `json:"-"`
	Name         string    `json:"name" validate:"required"`
	Description  string    `json:"description" validate:"required"`
	Category     string    `json:"category" validate:"required"`
	MemberCount  int       `json:"memberCount"`
	EventCount   int       `json:"eventCount"`
	LogoURL      string    `json:"logoUrl,omitempty"`
	ContactEmail string    `json:"contactEmail,omitempty"`
	ContactPhone string    `json:"contactPhone,omitempty"`
	Social       string    `json:"social,omitempty"`
	Website      string    `json:"website,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewClub is the caller-supplied part of a club.
type NewClub struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description" validate:"required"`
	Category     string `json:"category" validate:"required"`
	LogoURL      string `json:"logoUrl,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty"`
	Social       string `json:"social,omitempty"`
	Website      string `json:"website,omitempty"`
}
