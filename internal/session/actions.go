package session

import (
	"context"
	"errors"
	"strings"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/identity"
	"github.com/goserg/clubconnect/internal/user"
	"github.com/goserg/clubconnect/internal/validate"
)

// RegisterFields are the profile details collected at sign-up.
type RegisterFields struct {
	FullName string `json:"fullName" validate:"required"`
	RollNo   string `json:"rollNo" validate:"required"`
}

type credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

const msgInvalidEmail = "Please enter a valid email address."

// checkCredentials runs the local checks that must pass before the provider
// is contacted. Sign-in only checks presence; the provider judges the rest.
func checkCredentials(email, password string, signUp bool) error {
	if err := validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return err
	}
	if !signUp {
		return nil
	}
	if !validate.Email(email) {
		return apperr.Validation(msgInvalidEmail)
	}
	return validate.Password(password)
}

func pendingKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account, signs it in and writes its profile. It
// returns the new identity.
func (s *Session) Register(ctx context.Context, email, password string, fields RegisterFields) (identity.Identity, error) {
	email = strings.TrimSpace(email)
	fields.FullName = strings.TrimSpace(fields.FullName)
	fields.RollNo = strings.TrimSpace(fields.RollNo)
	if err := checkCredentials(email, password, true); err != nil {
		s.surface(err)
		return identity.Identity{}, err
	}
	if err := validate.Struct(fields); err != nil {
		s.surface(err)
		return identity.Identity{}, err
	}

	// The provider signs the new account in before CreateIdentity returns,
	// so the profile fields have to be in place first.
	key := pendingKey(email)
	s.mu.Lock()
	s.pending[key] = fields
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
	}()

	id, err := s.provider.CreateIdentity(ctx, email, password)
	if err != nil {
		return identity.Identity{}, s.fail(err, "Registration failed. Please try again.")
	}
	log := s.log.WithField("user", id.ID)

	if _, err := s.provider.UpdateProfile(ctx, id.ID, identity.ProfileUpdate{DisplayName: &fields.FullName}); err != nil {
		log.WithError(err).Warn("display name not set on identity")
	} else {
		id.DisplayName = fields.FullName
	}

	_, err = s.users.Get(ctx, id.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		u := fromIdentity(id)
		u.FullName = fields.FullName
		u.RollNo = fields.RollNo
		u.DisplayName = fields.FullName
		if _, err := s.users.Create(ctx, u); err != nil {
			return id, s.fail(err, "Failed to create your profile.")
		}
	case err != nil:
		return id, s.fail(err, "Failed to create your profile.")
	default:
		if err := s.users.Update(ctx, id.ID, user.Update{DisplayName: &fields.FullName}); err != nil {
			log.WithError(err).Warn("display name not set on profile")
		}
	}
	log.Info("registered")
	s.Refresh(ctx)
	return id, nil
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := checkCredentials(email, password, false); err != nil {
		s.surface(err)
		return err
	}
	id, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return s.fail(err, "Login failed. Please try again.")
	}
	if err := s.users.TouchLastLogin(ctx, id.ID); err != nil {
		s.log.WithError(err).WithField("user", id.ID).Warn("last login not recorded")
	}
	s.Refresh(ctx)
	return nil
}

// Logout signs out. The state clears when the provider reports the sign-out.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return s.fail(err, "Logout failed. Please try again.")
	}
	return nil
}

func (s *Session) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		err := validate.MissingFields("email")
		s.surface(err)
		return err
	}
	if !validate.Email(email) {
		err := apperr.Validation(msgInvalidEmail)
		s.surface(err)
		return err
	}
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		return s.fail(err, "Failed to send the password reset email.")
	}
	return nil
}

// ProfileUpdate holds the editable profile fields. Nil fields are left as is.
type ProfileUpdate struct {
	DisplayName *string
	FullName    *string
	RollNo      *string
}

func (s *Session) UpdateProfile(ctx context.Context, upd ProfileUpdate) error {
	id, err := s.signedInID()
	if err != nil {
		s.surface(err)
		return err
	}
	if upd.DisplayName != nil {
		if _, err := s.provider.UpdateProfile(ctx, id, identity.ProfileUpdate{DisplayName: upd.DisplayName}); err != nil {
			return s.fail(err, "Failed to update your profile.")
		}
	}
	err = s.users.Update(ctx, id, user.Update{
		DisplayName: upd.DisplayName,
		FullName:    upd.FullName,
		RollNo:      upd.RollNo,
	})
	if err != nil {
		return s.fail(err, "Failed to update your profile.")
	}
	s.Refresh(ctx)
	return nil
}

func (s *Session) ResendVerification(ctx context.Context) error {
	if _, err := s.signedInID(); err != nil {
		s.surface(err)
		return err
	}
	if err := s.provider.SendEmailVerification(ctx); err != nil {
		return s.fail(err, "Failed to send the verification email.")
	}
	return nil
}
