package event

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/user"
)

const (
	msgRegister          = "Failed to register for event."
	msgUnregister        = "Failed to cancel registration."
	msgAlreadyRegistered = "You are already registered for this event."
	msgNotRegistered     = "You are not registered for this event."
)

// Register adds userID to the event and eventID to the user's profile, and
// records the registration. On a transactional store all three writes
// commit together. Otherwise the profile is updated before success is
// reported, a failed profile write undoes the event write, and the audit
// record is best effort.
func (r *Repository) Register(ctx context.Context, eventID, userID string) error {
	log := r.log.WithFields(logrus.Fields{"event": eventID, "user": userID})
	if txs, ok := r.store.(docstore.Transactor); ok {
		err := txs.RunTransaction(ctx, func(tx docstore.Tx) error {
			u, err := r.addUserToEvent(tx, eventID, userID)
			if err != nil {
				return err
			}
			if err := addEventToUser(tx, u, eventID); err != nil {
				return err
			}
			return r.appendRegistration(tx, eventID, u)
		})
		if err != nil {
			return apperr.From(err, msgRegister)
		}
		log.Info("registered")
		return nil
	}

	tx := docstore.Direct(ctx, r.store)
	u, err := r.addUserToEvent(tx, eventID, userID)
	if err != nil {
		return apperr.From(err, msgRegister)
	}
	if err := addEventToUser(tx, u, eventID); err != nil {
		if _, cerr := r.removeUserFromEvent(tx, eventID, userID); cerr != nil {
			log.WithError(cerr).Error("event and profile registrations out of sync")
		}
		return apperr.From(err, msgRegister)
	}
	if err := r.appendRegistration(tx, eventID, u); err != nil {
		log.WithError(err).Warn("registration audit record not written")
	}
	log.Info("registered")
	return nil
}

// Unregister reverses the membership changes of Register. The audit
// record stays.
func (r *Repository) Unregister(ctx context.Context, eventID, userID string) error {
	log := r.log.WithFields(logrus.Fields{"event": eventID, "user": userID})
	if txs, ok := r.store.(docstore.Transactor); ok {
		err := txs.RunTransaction(ctx, func(tx docstore.Tx) error {
			if _, err := r.removeUserFromEvent(tx, eventID, userID); err != nil {
				return err
			}
			return removeEventFromUser(tx, userID, eventID)
		})
		if err != nil {
			return apperr.From(err, msgUnregister)
		}
		log.Info("unregistered")
		return nil
	}

	tx := docstore.Direct(ctx, r.store)
	if _, err := r.removeUserFromEvent(tx, eventID, userID); err != nil {
		return apperr.From(err, msgUnregister)
	}
	if err := removeEventFromUser(tx, userID, eventID); err != nil {
		if _, cerr := r.addUserToEvent(tx, eventID, userID); cerr != nil {
			log.WithError(cerr).Error("event and profile registrations out of sync")
		}
		return apperr.From(err, msgUnregister)
	}
	log.Info("unregistered")
	return nil
}

// addUserToEvent returns the profile of userID for the follow-up writes.
func (r *Repository) addUserToEvent(tx docstore.Tx, eventID, userID string) (domain.User, error) {
	e, err := readEvent(tx, eventID)
	if err != nil {
		return domain.User{}, err
	}
	ids, added := domain.AddID(e.RegisteredUserIDs, userID)
	if !added {
		return domain.User{}, apperr.Conflict(msgAlreadyRegistered)
	}
	u, err := readUser(tx, userID)
	if err != nil {
		return domain.User{}, err
	}
	err = tx.Update(Collection, eventID, docstore.Data{
		"registeredUserIds": ids,
		"registrationCount": len(ids),
		"updatedAt":         r.now().UTC(),
	})
	return u, err
}

func (r *Repository) removeUserFromEvent(tx docstore.Tx, eventID, userID string) (domain.Event, error) {
	e, err := readEvent(tx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	ids, removed := domain.RemoveID(e.RegisteredUserIDs, userID)
	if !removed {
		return domain.Event{}, apperr.Conflict(msgNotRegistered)
	}
	err = tx.Update(Collection, eventID, docstore.Data{
		"registeredUserIds": ids,
		"registrationCount": len(ids),
		"updatedAt":         r.now().UTC(),
	})
	return e, err
}

func addEventToUser(tx docstore.Tx, u domain.User, eventID string) error {
	ids, _ := domain.AddID(u.RegisteredEventIDs, eventID)
	return tx.Update(user.Collection, u.ID, docstore.Data{"registeredEventIds": ids})
}

func removeEventFromUser(tx docstore.Tx, userID, eventID string) error {
	u, err := readUser(tx, userID)
	if err != nil {
		return err
	}
	ids, _ := domain.RemoveID(u.RegisteredEventIDs, eventID)
	return tx.Update(user.Collection, userID, docstore.Data{"registeredEventIds": ids})
}

func (r *Repository) appendRegistration(tx docstore.Tx, eventID string, u domain.User) error {
	data, err := docstore.Encode(domain.Registration{
		EventID:   eventID,
		UserID:    u.ID,
		UserName:  u.Name(),
		UserEmail: u.Email,
		Status:    domain.RegistrationStatusRegistered,
		CreatedAt: r.now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = tx.Add(RegistrationCollection, data)
	return err
}

func readEvent(tx docstore.Tx, id string) (domain.Event, error) {
	doc, err := tx.Get(Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Event{}, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return domain.Event{}, err
	}
	return Decode(doc)
}

func readUser(tx docstore.Tx, id string) (domain.User, error) {
	doc, err := tx.Get(user.Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.User{}, apperr.NotFound("User profile not found.")
	}
	if err != nil {
		return domain.User{}, err
	}
	return user.Decode(doc)
}
