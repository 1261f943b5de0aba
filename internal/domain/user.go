package domain

import "time"

const (
	RoleStudent   = "student"
	RoleClubAdmin = "club_admin"
	RoleAdmin     = "admin"
)

type User struct {
	ID                 string    `json:"-"`
	Email              string    `json:"email" validate:"required"`
	DisplayName        string    `json:"displayName"`
	FullName           string    `json:"fullName,omitempty"`
	RollNo             string    `json:"rollNo,omitempty"`
	EmailVerified      bool      `json:"emailVerified"`
	Role               string    `json:"role"`
	CreatedAt          time.Time `json:"createdAt"`
	LastLoginAt        time.Time `json:"lastLoginAt"`
	SavedEventIDs      []string  `json:"savedEventIds"`
	RegisteredEventIDs []string  `json:"registeredEventIds"`
}

// Name is what other records snapshot as the user's display name.
func (u User) Name() string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.DisplayName != "":
		return u.DisplayName
	}
	return u.Email
}
