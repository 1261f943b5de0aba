// Package club is the repository of club directory entries.
package club

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/normalize"
	"github.com/goserg/clubconnect/internal/validate"
)

const Collection = "clubs"

const (
	msgNotFound = "Club not found."
	msgLoad     = "Failed to load clubs."
)

type Repository struct {
	store docstore.Store
	log   *logrus.Entry
	now   func() time.Time
}

func New(l *logrus.Logger, store docstore.Store) *Repository {
	return &Repository{
		store: store,
		log:   l.WithFields(map[string]interface{}{"from": "club-repository"}),
		now:   time.Now,
	}
}

func decode(doc docstore.Document) (domain.Club, error) {
	var c domain.Club
	if err := validate.Decode(doc, &c); err != nil {
		return domain.Club{}, err
	}
	c.ID = doc.ID
	return c, nil
}

// ListAll returns every club ordered by name.
func (r *Repository) ListAll(ctx context.Context) ([]domain.Club, error) {
	return r.list(ctx, docstore.OrderBy("name", docstore.Asc))
}

func (r *Repository) ListByCategory(ctx context.Context, category string) ([]domain.Club, error) {
	return r.list(ctx,
		docstore.Where("category", docstore.OpEqual, category),
		docstore.OrderBy("name", docstore.Asc),
	)
}

// Search matches term case-insensitively anywhere in a club's name or
// description. An empty term lists every club.
func (r *Repository) Search(ctx context.Context, term string) ([]domain.Club, error) {
	clubs, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(term) == "" {
		return clubs, nil
	}
	found := make([]domain.Club, 0)
	for _, c := range clubs {
		if normalize.Contains(c.Name, term) || normalize.Contains(c.Description, term) {
			found = append(found, c)
		}
	}
	return found, nil
}

// list skips stored records that fail to decode so one bad entry does not
// hide the whole directory.
func (r *Repository) list(ctx context.Context, constraints ...docstore.Constraint) ([]domain.Club, error) {
	docs, err := r.store.Query(ctx, Collection, constraints...)
	if err != nil {
		return nil, apperr.From(err, msgLoad)
	}
	clubs := make([]domain.Club, 0, len(docs))
	for _, doc := range docs {
		c, err := decode(doc)
		if err != nil {
			r.log.WithError(err).WithField("id", doc.ID).Warn("skipping malformed club")
			continue
		}
		clubs = append(clubs, c)
	}
	return clubs, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Club, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Club{}, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return domain.Club{}, apperr.From(err, "Failed to load club.")
	}
	return decode(doc)
}

func (r *Repository) Create(ctx context.Context, in domain.NewClub) (domain.Club, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Club{}, err
	}
	now := r.now().UTC()
	c := domain.Club{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Category:     in.Category,
		LogoURL:      in.LogoURL,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		Social:       in.Social,
		Website:      in.Website,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	data, err := docstore.Encode(c)
	if err != nil {
		return domain.Club{}, apperr.DataAccess(apperr.MsgUnexpected, err)
	}
	id, err := r.store.Add(ctx, Collection, data)
	if err != nil {
		return domain.Club{}, apperr.From(err, "Failed to create club.")
	}
	c.ID = id
	r.log.WithFields(logrus.Fields{"id": id, "name": c.Name}).Info("club created")
	return c, nil
}

// Patch lists the fields Update changes. Nil fields are left alone.
type Patch struct {
	Name         *string
	Description  *string
	Category     *string
	MemberCount  *int
	EventCount   *int
	LogoURL      *string
	ContactEmail *string
	ContactPhone *string
	Social       *string
	Website      *string
	IsActive     *bool
}

func (p Patch) data() docstore.Data {
	d := docstore.Data{}
	for key, v := range map[string]*string{
		"name":         p.Name,
		"description":  p.Description,
		"category":     p.Category,
		"logoUrl":      p.LogoURL,
		"contactEmail": p.ContactEmail,
		"contactPhone": p.ContactPhone,
		"social":       p.Social,
		"website":      p.Website,
	} {
		if v != nil {
			d[key] = *v
		}
	}
	if p.MemberCount != nil {
		d["memberCount"] = *p.MemberCount
	}
	if p.EventCount != nil {
		d["eventCount"] = *p.EventCount
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
		return apperr.From(err, "Failed to update club.")
	}
	return nil
}
