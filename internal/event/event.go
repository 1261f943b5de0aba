// Package event is the repository of campus events and of the
// registrations made for them.
package event

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/normalize"
	"github.com/goserg/clubconnect/internal/validate"
)

const (
	Collection             = "events"
	RegistrationCollection = "registrations"
)

const (
	msgNotFound = "Event not found."
	msgLoad     = "Failed to load events."
)

type Repository struct {
	store docstore.Store
	log   *logrus.Entry
	now   func() time.Time
}

func New(l *logrus.Logger, store docstore.Store) *Repository {
	return &Repository{
		store: store,
		log:   l.WithFields(map[string]interface{}{"from": "event-repository"}),
		now:   time.Now,
	}
}

// Decode reads an event document.
func Decode(doc docstore.Document) (domain.Event, error) {
	var e domain.Event
	if err := validate.Decode(doc, &e); err != nil {
		return domain.Event{}, err
	}
	e.ID = doc.ID
	if e.RegisteredUserIDs == nil {
		e.RegisteredUserIDs = []string{}
	}
	return e, nil
}

// Filters narrow ListAll and Search. Set filters combine with AND.
type Filters struct {
	ClubID   string
	Category string
	// Upcoming keeps events dated today or later.
	Upcoming bool
	Featured *bool
}

func (f Filters) constraints(today domain.Date) []docstore.Constraint {
	var c []docstore.Constraint
	if f.ClubID != "" {
		c = append(c, docstore.Where("clubId", docstore.OpEqual, f.ClubID))
	}
	if f.Category != "" {
		c = append(c, docstore.Where("category", docstore.OpEqual, f.Category))
	}
	if f.Upcoming {
		c = append(c, docstore.Where("date", docstore.OpGreaterEqual, today))
	}
	if f.Featured != nil {
		c = append(c, docstore.Where("isFeatured", docstore.OpEqual, *f.Featured))
	}
	return append(c, docstore.OrderBy("date", docstore.Asc))
}

func (r *Repository) today() domain.Date {
	return domain.DateOf(r.now())
}

// ListAll returns the events matching f in ascending date order.
func (r *Repository) ListAll(ctx context.Context, f Filters) ([]domain.Event, error) {
	return r.list(ctx, f.constraints(r.today())...)
}

func (r *Repository) ListByClub(ctx context.Context, clubID string) ([]domain.Event, error) {
	return r.ListAll(ctx, Filters{ClubID: clubID})
}

// ListUpcoming returns events dated today or later, soonest first. A
// non-positive limit means no limit.
func (r *Repository) ListUpcoming(ctx context.Context, limit int) ([]domain.Event, error) {
	c := Filters{Upcoming: true}.constraints(r.today())
	if limit > 0 {
		c = append(c, docstore.Limit(limit))
	}
	return r.list(ctx, c...)
}

// ListForDate returns the events of one calendar day.
func (r *Repository) ListForDate(ctx context.Context, date domain.Date) ([]domain.Event, error) {
	return r.list(ctx, docstore.Where("date", docstore.OpEqual, date))
}

// Search applies f in the store, then keeps events whose title contains
// term, ignoring case. An empty term behaves as ListAll.
func (r *Repository) Search(ctx context.Context, term string, f Filters) ([]domain.Event, error) {
	events, err := r.ListAll(ctx, f)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(term) == "" {
		return events, nil
	}
	found := make([]domain.Event, 0)
	for _, e := range events {
		if normalize.Contains(e.Title, term) {
			found = append(found, e)
		}
	}
	return found, nil
}

func (r *Repository) list(ctx context.Context, constraints ...docstore.Constraint) ([]domain.Event, error) {
	docs, err := r.store.Query(ctx, Collection, constraints...)
	if err != nil {
		return nil, apperr.From(err, msgLoad)
	}
	return r.DecodeAll(docs), nil
}

// DecodeAll decodes a query result, skipping records that fail to decode.
func (r *Repository) DecodeAll(docs []docstore.Document) []domain.Event {
	events := make([]domain.Event, 0, len(docs))
	for _, doc := range docs {
		e, err := Decode(doc)
		if err != nil {
			r.log.WithError(err).WithField("id", doc.ID).Warn("skipping malformed event")
			continue
		}
		events = append(events, e)
	}
	return events
}

// Watch follows the events matching f. Upcoming is resolved against the
// date Watch is called on.
func (r *Repository) Watch(ctx context.Context, f Filters) (*docstore.Subscription, error) {
	sub, err := r.store.Subscribe(ctx, Collection, f.constraints(r.today())...)
	if err != nil {
		return nil, apperr.From(err, msgLoad)
	}
	return sub, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Event, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Event{}, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return domain.Event{}, apperr.From(err, "Failed to load event.")
	}
	return Decode(doc)
}

func (r *Repository) Create(ctx context.Context, in domain.NewEvent) (domain.Event, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Event{}, err
	}
	now := r.now().UTC()
	e := domain.Event{
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		Date:              in.Date,
		Time:              in.Time,
		Location:          in.Location,
		ClubID:            in.ClubID,
		ClubName:          in.ClubName,
		Category:          in.Category,
		RegistrationLink:  in.RegistrationLink,
		RegisteredUserIDs: []string{},
		IsFeatured:        in.IsFeatured,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	data, err := docstore.Encode(e)
	if err != nil {
		return domain.Event{}, apperr.DataAccess(apperr.MsgUnexpected, err)
	}
	id, err := r.store.Add(ctx, Collection, data)
	if err != nil {
		return domain.Event{}, apperr.From(err, "Failed to create event.")
	}
	e.ID = id
	r.log.WithFields(logrus.Fields{"id": id, "title": e.Title, "date": e.Date}).Info("event created")
	return e, nil
}

// Patch lists the fields Update changes. Registrations are changed only
// through Register and Unregister.
type Patch struct {
	Title            *string
	Description      *string
	Date             *domain.Date
	Time             *string
	Location         *string
	ClubName         *string
	Category         *string
	RegistrationLink *string
	IsFeatured       *bool
	IsActive         *bool
}

func (p Patch) data() docstore.Data {
	d := docstore.Data{}
	for key, v := range map[string]*string{
		"title":            p.Title,
		"description":      p.Description,
		"time":             p.Time,
		"location":         p.Location,
		"clubName":         p.ClubName,
		"category":         p.Category,
		"registrationLink": p.RegistrationLink,
	} {
		if v != nil {
			d[key] = *v
		}
	}
	if p.Date != nil {
		d["date"] = p.Date.String()
	}
	if p.IsFeatured != nil {
		d["isFeatured"] = *p.IsFeatured
	}
	if p.IsActive != nil {
		d["isActive"] = *p.IsActive
	}
	return d
}

// Update applies p and always stamps updatedAt.
func (r *Repository) Update(ctx context.Context, id string, p Patch) error {
	patch := p.data()
	patch["updatedAt"] = r.now().UTC()
	err := r.store.Update(ctx, Collection, id, patch)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return apperr.From(err, "Failed to update event.")
	}
	return nil
}

// Delete removes the event document only. Registrations and the id lists
// on user profiles keep pointing at it.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return apperr.From(err, "Failed to delete event.")
	}
	if err := r.store.Delete(ctx, Collection, id); err != nil {
		return apperr.From(err, "Failed to delete event.")
	}
	r.log.WithField("id", id).Info("event deleted")
	return nil
}

// ListRegistrations returns the audit trail of an event, oldest first.
func (r *Repository) ListRegistrations(ctx context.Context, eventID string) ([]domain.Registration, error) {
	docs, err := r.store.Query(ctx, RegistrationCollection,
		docstore.Where("eventId", docstore.OpEqual, eventID),
	)
	if err != nil {
		return nil, apperr.From(err, "Failed to load registrations.")
	}
	regs := make([]domain.Registration, 0, len(docs))
	for _, doc := range docs {
		var reg domain.Registration
		if err := validate.Decode(doc, &reg); err != nil {
			r.log.WithError(err).WithField("id", doc.ID).Warn("skipping malformed registration")
			continue
		}
		reg.ID = doc.ID
		regs = append(regs, reg)
	}
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
	return regs, nil
}
