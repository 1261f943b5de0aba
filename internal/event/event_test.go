package event

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/docstore/mem"
	"github.com/goserg/clubconnect/internal/domain"
)

var (
	fixedNow = time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
	today    = domain.DateOf(fixedNow)
)

func newRepo(t *testing.T, store docstore.Store) *Repository {
	r := New(logrus.New(), store)
	r.now = func() time.Time { return fixedNow }
	return r
}

func newMemRepo(t *testing.T) (*Repository, *mem.Store) {
	store := mem.New()
	t.Cleanup(store.Close)
	return newRepo(t, store), store
}

func newEvent(title, clubID string, date domain.Date) domain.NewEvent {
	return domain.NewEvent{
		Title:       title,
		Description: "About " + title,
		Date:        date,
		Time:        "17:00",
		Location:    "Main Hall",
		ClubID:      clubID,
		ClubName:    "Club " + clubID,
		Category:    domain.TypeWorkshop,
	}
}

func mustCreate(t *testing.T, r *Repository, in domain.NewEvent) domain.Event {
	t.Helper()
	e, err := r.Create(context.Background(), in)
	require.NoError(t, err)
	return e
}

func titles(events []domain.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Title)
	}
	return out
}

func TestCreate(t *testing.T) {
	r, _ := newMemRepo(t)
	e := mustCreate(t, r, newEvent("Hackathon", "c1", today.AddDays(3)))
	assert.NotEmpty(t, e.ID)
	assert.True(t, e.IsActive)
	assert.Empty(t, e.RegisteredUserIDs)
	assert.Zero(t, e.RegistrationCount)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)

	got, err := r.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestCreateListsMissingFields(t *testing.T) {
	r, _ := newMemRepo(t)
	_, err := r.Create(context.Background(), domain.NewEvent{Title: "x", ClubID: "c1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Missing required fields: description, date, time, location, category.", err.Error())
}

func TestListAll(t *testing.T) {
	r, _ := newMemRepo(t)
	ctx := context.Background()
	featured := newEvent("Robotics Expo", "c1", today.AddDays(10))
	featured.IsFeatured = true
	mustCreate(t, r, featured)
	mustCreate(t, r, newEvent("Old Meetup", "c1", today.AddDays(-5)))
	poetry := newEvent("Poetry Night", "c2", today)
	poetry.Category = domain.TypeSocial
	mustCreate(t, r, poetry)

	all, err := r.ListAll(ctx, Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Old Meetup", "Poetry Night", "Robotics Expo"}, titles(all))

	byClub, err := r.ListByClub(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Old Meetup", "Robotics Expo"}, titles(byClub))

	yes := true
	got, err := r.ListAll(ctx, Filters{ClubID: "c1", Upcoming: true, Featured: &yes})
	require.NoError(t, err)
	assert.Equal(t, []string{"Robotics Expo"}, titles(got))

	got, err = r.ListAll(ctx, Filters{Category: domain.TypeSocial})
	require.NoError(t, err)
	assert.Equal(t, []string{"Poetry Night"}, titles(got))

	got, err = r.ListAll(ctx, Filters{ClubID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListUpcoming(t *testing.T) {
	r, _ := newMemRepo(t)
	ctx := context.Background()
	mustCreate(t, r, newEvent("Next week", "c1", today.AddDays(7)))
	mustCreate(t, r, newEvent("Yesterday", "c1", today.AddDays(-1)))
	mustCreate(t, r, newEvent("Today", "c1", today))

	got, err := r.ListUpcoming(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Today", "Next week"}, titles(got))

	got, err = r.ListUpcoming(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Today"}, titles(got))
}

func TestListForDate(t *testing.T) {
	r, _ := newMemRepo(t)
	mustCreate(t, r, newEvent("A", "c1", today))
	mustCreate(t, r, newEvent("B", "c2", today.AddDays(1)))
	mustCreate(t, r, newEvent("C", "c3", today))

	got, err := r.ListForDate(context.Background(), today)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "C"}, titles(got))
}

func TestSearch(t *testing.T) {
	r, _ := newMemRepo(t)
	ctx := context.Background()
	mustCreate(t, r, newEvent("Tech Club", "c1", today.AddDays(1)))
	mustCreate(t, r, newEvent("Arts Club", "c2", today.AddDays(2)))
	mustCreate(t, r, newEvent("Technovate", "c3", today.AddDays(3)))
	mustCreate(t, r, newEvent("Intro to Biotech", "c3", today.AddDays(-3)))

	got, err := r.Search(ctx, "Tech", Filters{Upcoming: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tech Club", "Technovate"}, titles(got))

	got, err = r.Search(ctx, "TECH", Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro to Biotech", "Tech Club", "Technovate"}, titles(got))

	got, err = r.Search(ctx, "", Filters{ClubID: "c2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Arts Club"}, titles(got))
}

func TestUpdate(t *testing.T) {
	r, _ := newMemRepo(t)
	ctx := context.Background()
	e := mustCreate(t, r, newEvent("Hackathon", "c1", today))

	later := fixedNow.Add(time.Hour)
	r.now = func() time.Time { return later }
	moved := today.AddDays(2)
	loc := "Lab 3"
	require.NoError(t, r.Update(ctx, e.ID, Patch{Date: &moved, Location: &loc}))

	got, err := r.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, moved, got.Date)
	assert.Equal(t, "Lab 3", got.Location)
	assert.Equal(t, "Hackathon", got.Title)
	assert.Equal(t, later, got.UpdatedAt)

	assert.ErrorIs(t, r.Update(ctx, "missing", Patch{}), apperr.ErrNotFound)
}

func TestDeleteDoesNotCascade(t *testing.T) {
	r, store := newMemRepo(t)
	ctx := context.Background()
	seedUser(t, store, "u1")
	e := mustCreate(t, r, newEvent("Hackathon", "c1", today))
	require.NoError(t, r.Register(ctx, e.ID, "u1"))

	require.NoError(t, r.Delete(ctx, e.ID))
	_, err := r.Get(ctx, e.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, e.ID), apperr.ErrNotFound)

	regs, err := r.ListRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, regs, 1)
	assert.Equal(t, []string{e.ID}, userDoc(t, store, "u1").RegisteredEventIDs)
}

func TestMalformedEventsAreSkipped(t *testing.T) {
	r, store := newMemRepo(t)
	ctx := context.Background()
	mustCreate(t, r, newEvent("Good", "c1", today))
	require.NoError(t, store.Set(ctx, Collection, "bad", docstore.Data{"title": "No club", "date": today.String()}))

	got, err := r.ListAll(ctx, Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Good"}, titles(got))

	_, err = r.Get(ctx, "bad")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Missing required field: clubId.", err.Error())
}

func TestDeleteMalformedEvent(t *testing.T) {
	r, store := newMemRepo(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, Collection, "bad", docstore.Data{"title": "No club", "date": today.String()}))

	require.NoError(t, r.Delete(ctx, "bad"))
	_, err := store.Get(ctx, Collection, "bad")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	assert.ErrorIs(t, r.Delete(ctx, "bad"), apperr.ErrNotFound)
}
