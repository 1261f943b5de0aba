package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/domain"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.com", true},
		{"first.last@campus.edu", true},
		{"no-at-sign.com", false},
		{"two@@b.com", false},
		{"space in@b.com", false},
		{"a@b", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, Email(tt.email))
		})
	}
}

func TestPassword(t *testing.T) {
	err := Password("short")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Password must be at least 6 characters long", err.Error())
	assert.NoError(t, Password("sixsix"))
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		pw    string
		score int
		label string
	}{
		{"abc", 0, "Very weak"},
		{"abcdef", 0, "Very weak"},
		{"abcdefgh", 1, "Weak"},
		{"abcdefg1", 2, "Fair"},
		{"Abcdefg1", 3, "Good"},
		{"Abcdefg1!", 4, "Strong"},
		{"Abcdefghijk1!", 4, "Strong"},
	}
	for _, tt := range tests {
		t.Run(tt.pw, func(t *testing.T) {
			got := PasswordStrength(tt.pw)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.label, got.Label)
		})
	}
}

type form struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Website     string `json:"website,omitempty"`
}

func TestStructListsEveryMissingField(t *testing.T) {
	err := Struct(form{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Missing required fields: name, description, category.", err.Error())

	err = Struct(form{Name: "Chess", Description: "Weekly games"})
	assert.Equal(t, "Missing required field: category.", err.Error())

	assert.NoError(t, Struct(form{Name: "Chess", Description: "Weekly games", Category: "Other"}))
}

func TestDecode(t *testing.T) {
	var e domain.Event
	err := Decode(docstore.Document{ID: "e1", Data: docstore.Data{"clubId": "c1"}}, &e)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Missing required fields: title, date.", err.Error())

	err = Decode(docstore.Document{ID: "e1", Data: docstore.Data{"title": "x", "clubId": "c1", "date": "03/10/2026"}}, &e)
	require.Error(t, err)
	assert.Equal(t, "Stored record is malformed.", err.Error())

	e = domain.Event{}
	err = Decode(docstore.Document{ID: "e1", Data: docstore.Data{"title": "x", "clubId": "c1", "date": "2026-03-10"}}, &e)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", e.Date.String())
}
