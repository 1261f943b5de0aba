// Package user stores profile documents, keyed by identity id.
package user

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/validate"
)

const Collection = "users"

const msgNotFound = "User profile not found."

type Repository struct {
	store docstore.Store
	log   *logrus.Entry
	now   func() time.Time
}

func New(l *logrus.Logger, store docstore.Store) *Repository {
	return &Repository{
		store: store,
		log:   l.WithFields(map[string]interface{}{"from": "user-repository"}),
		now:   time.Now,
	}
}

// Decode reads a profile document.
func Decode(doc docstore.Document) (domain.User, error) {
	var u domain.User
	if err := validate.Decode(doc, &u); err != nil {
		return domain.User{}, err
	}
	u.ID = doc.ID
	if u.Role == "" {
		u.Role = domain.RoleStudent
	}
	return u, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.User, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.User{}, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return domain.User{}, apperr.From(err, "Failed to load your profile.")
	}
	return Decode(doc)
}

// Create writes a new profile, filling in the defaults of a first sign-in.
func (r *Repository) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ID == "" {
		return domain.User{}, apperr.Validation("Missing required field: id.")
	}
	if u.Role == "" {
		u.Role = domain.RoleStudent
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}
	if u.SavedEventIDs == nil {
		u.SavedEventIDs = []string{}
	}
	if u.RegisteredEventIDs == nil {
		u.RegisteredEventIDs = []string{}
	}
	if err := validate.Struct(u); err != nil {
		return domain.User{}, err
	}
	data, err := docstore.Encode(u)
	if err != nil {
		return domain.User{}, apperr.DataAccess(apperr.MsgUnexpected, err)
	}
	if err := r.store.Set(ctx, Collection, u.ID, data); err != nil {
		return domain.User{}, apperr.From(err, "Failed to create your profile.")
	}
	r.log.WithField("id", u.ID).Info("profile created")
	return u, nil
}

type Update struct {
	DisplayName   *string
	FullName      *string
	RollNo        *string
	EmailVerified *bool
	Role          *string
}

func (upd Update) patch() docstore.Data {
	patch := docstore.Data{}
	if upd.DisplayName != nil {
		patch["displayName"] = *upd.DisplayName
	}
	if upd.FullName != nil {
		patch["fullName"] = *upd.FullName
	}
	if upd.RollNo != nil {
		patch["rollNo"] = *upd.RollNo
	}
	if upd.EmailVerified != nil {
		patch["emailVerified"] = *upd.EmailVerified
	}
	if upd.Role != nil {
		patch["role"] = *upd.Role
	}
	return patch
}

func (r *Repository) Update(ctx context.Context, id string, upd Update) error {
	patch := upd.patch()
	if len(patch) == 0 {
		return nil
	}
	return r.update(ctx, id, patch, "Failed to update your profile.")
}

func (r *Repository) TouchLastLogin(ctx context.Context, id string) error {
	return r.update(ctx, id, docstore.Data{"lastLoginAt": r.now().UTC()}, "Failed to update your profile.")
}

func (r *Repository) update(ctx context.Context, id string, patch docstore.Data, msg string) error {
	err := r.store.Update(ctx, Collection, id, patch)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return apperr.From(err, msg)
	}
	return nil
}

// SaveEvents adds eventIDs to the saved list, keeping the existing order.
func (r *Repository) SaveEvents(ctx context.Context, userID string, eventIDs ...string) error {
	return r.editSaved(ctx, userID, func(ids []string) []string {
		return domain.MergeIDs(ids, eventIDs)
	})
}

func (r *Repository) UnsaveEvent(ctx context.Context, userID, eventID string) error {
	return r.editSaved(ctx, userID, func(ids []string) []string {
		out, _ := domain.RemoveID(ids, eventID)
		return out
	})
}

func (r *Repository) editSaved(ctx context.Context, userID string, edit func([]string) []string) error {
	err := docstore.Atomically(ctx, r.store, func(tx docstore.Tx) error {
		doc, err := tx.Get(Collection, userID)
		if err != nil {
			return err
		}
		u, err := Decode(doc)
		if err != nil {
			return err
		}
		return tx.Update(Collection, userID, docstore.Data{
			"savedEventIds": edit(u.SavedEventIDs),
		})
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return apperr.From(err, "Failed to update saved events.")
	}
	return nil
}

// Watch follows the profile document. Snapshots hold zero or one document.
func (r *Repository) Watch(ctx context.Context, id string) (*docstore.Subscription, error) {
	sub, err := r.store.Subscribe(ctx, Collection, docstore.Where(docstore.FieldID, docstore.OpEqual, id))
	if err != nil {
		return nil, apperr.From(err, "Failed to load your profile.")
	}
	return sub, nil
}
