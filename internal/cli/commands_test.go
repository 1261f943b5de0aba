package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goserg/clubconnect/internal/app"
	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/config"
	"github.com/goserg/clubconnect/internal/domain"
)

func newCommands(t *testing.T) (*Commands, *app.App) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	var cfg config.Config
	cfg.Identity.TokenSecret = "secret"
	ctx := context.Background()
	a, err := app.New(ctx, logger, cfg)
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	t.Cleanup(a.Close)
	return NewCommands(a, "letmein"), a
}

func run(t *testing.T, cs *Commands, line string) (string, error) {
	t.Helper()
	fields := strings.Fields(line)
	return cs.RunCommand(context.Background(), fields[0], fields[1:])
}

func mustRun(t *testing.T, cs *Commands, line string) string {
	t.Helper()
	out, err := run(t, cs, line)
	require.NoError(t, err, line)
	return out
}

func TestHelpFollowsRole(t *testing.T) {
	cs, _ := newCommands(t)
	out := mustRun(t, cs, "help")
	assert.Contains(t, out, "signup")
	assert.NotContains(t, out, "add-club")
	assert.NotContains(t, out, "logout")

	mustRun(t, cs, "signup -name Ada -roll 7 ada@campus.edu secret1")
	out = mustRun(t, cs, "help")
	assert.Contains(t, out, "logout")
	assert.NotContains(t, out, "signup")

	assert.Contains(t, mustRun(t, cs, "help save"), "Usage: save")
	_, err := run(t, cs, "help add-club")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestUnknownAndForbidden(t *testing.T) {
	cs, _ := newCommands(t)
	_, err := run(t, cs, "launch")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = run(t, cs, "add-club -name X")
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)

	mustRun(t, cs, "signup -name Ada -roll 7 ada@campus.edu secret1")
	_, err = run(t, cs, "add-club -name X")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = run(t, cs, "signup -name Bob -roll 8 bob@campus.edu secret1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSignupValidation(t *testing.T) {
	cs, _ := newCommands(t)
	_, err := run(t, cs, "signup -name Ada -roll 7 a@b.com short")
	assert.EqualError(t, err, "Password must be at least 6 characters long")
	_, err = run(t, cs, "signup a@b.com")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestOrganizerFlow(t *testing.T) {
	cs, a := newCommands(t)
	mustRun(t, cs, "signup -name Ada -roll 7 ada@campus.edu secret1")

	_, err := run(t, cs, "role admin wrong")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Equal(t, "Role updated to admin.", mustRun(t, cs, "role admin letmein"))
	_, err = run(t, cs, "role admin letmein")
	assert.Error(t, err)

	out := mustRun(t, cs, "add-club -name Robotics -description Robots -category Technical")
	clubID := strings.TrimPrefix(out, "Club created: ")

	_, err = run(t, cs, "add-event -club "+clubID+" -title Night")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	date := domain.DateOf(time.Now()).AddDays(2).String()
	out = mustRun(t, cs, "add-event -club "+clubID+" -title Build -description Robots -date "+date+
		" -time 18:00 -location Lab -type Workshop")
	eventID := strings.TrimPrefix(out, "Event created: ")

	require.Eventually(t, func() bool {
		_, ok := a.Feed.Get(eventID)
		return ok
	}, time.Second, 5*time.Millisecond)

	assert.Contains(t, mustRun(t, cs, "clubs -search robo"), "Robotics")
	assert.Contains(t, mustRun(t, cs, "club "+clubID), "Build")
	assert.Contains(t, mustRun(t, cs, "events -upcoming"), "Build")
	assert.Equal(t, "No events found.", mustRun(t, cs, "events -past"))

	assert.Equal(t, "You are registered.", mustRun(t, cs, "register "+eventID))
	out = mustRun(t, cs, "event "+eventID)
	assert.Contains(t, out, "Registered: 1")
	assert.Contains(t, out, "1. Ada <ada@campus.edu>")
}

func TestGuestSavesCarryOver(t *testing.T) {
	cs, a := newCommands(t)
	ctx := context.Background()
	c, err := a.Clubs.Create(ctx, domain.NewClub{Name: "Arts", Description: "Paint", Category: domain.CategoryCultural})
	require.NoError(t, err)
	e, err := a.Events.Create(ctx, domain.NewEvent{
		Title: "Gallery", Description: "Walk", Date: domain.DateOf(time.Now()),
		Time: "10:00", Location: "Hall", ClubID: c.ID, ClubName: c.Name, Category: domain.TypeSocial,
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, ok := a.Feed.Get(e.ID)
		return ok
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "Event saved.", mustRun(t, cs, "save "+e.ID))
	assert.Contains(t, mustRun(t, cs, "saved"), "Gallery")
	assert.Contains(t, mustRun(t, cs, "events"), "* "+e.ID)

	_, err = run(t, cs, "register "+e.ID)
	assert.EqualError(t, err, "Please sign in to register for events.")

	mustRun(t, cs, "signup -name Ada -roll 7 ada@campus.edu secret1")
	assert.Contains(t, mustRun(t, cs, "whoami"), "Saved: 1, registered: 0")
	mustRun(t, cs, "register "+e.ID)
	assert.Contains(t, mustRun(t, cs, "registered"), "Gallery")

	mustRun(t, cs, "logout")
	assert.Equal(t, "Not signed in.", mustRun(t, cs, "whoami"))
	assert.Equal(t, "No events found.", mustRun(t, cs, "saved"))
	assert.Equal(t, "Signed in as Ada.", mustRun(t, cs, "login ada@campus.edu secret1"))
	assert.Contains(t, mustRun(t, cs, "saved"), "Gallery")
}

func TestProfile(t *testing.T) {
	cs, _ := newCommands(t)
	mustRun(t, cs, "signup -name Ada -roll 7 ada@campus.edu secret1")
	out := mustRun(t, cs, "profile -roll 99")
	assert.Contains(t, out, "Roll number: 99")
	assert.Equal(t, "Verification email sent.", mustRun(t, cs, "verify"))
	assert.Equal(t, "Password reset email sent.", mustRun(t, cs, "reset-password ada@campus.edu"))
}
