// Package identity describes the authentication collaborator: who is signed
// in, and the account operations the session layer delegates to it.
package identity

import (
	"context"
)

type Identity struct {
	ID            string
	Email         string
	DisplayName   string
	EmailVerified bool
}

type ProfileUpdate struct {
	DisplayName *string
}

// Listener receives the signed-in identity, or nil after sign-out.
type Listener func(id *Identity)

type Provider interface {
	// CreateIdentity creates an account and signs it in.
	CreateIdentity(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (Identity, error)
	// SendEmailVerification mails a verification link to the current identity.
	SendEmailVerification(ctx context.Context) error
	// Subscribe calls fn with the current identity right away and again on
	// every sign-in and sign-out, in order. fn must not call Subscribe.
	Subscribe(fn Listener) (unsubscribe func())
	Current() *Identity
}

// Error codes returned by providers.
const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeMissingPassword   = "auth/missing-password"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeUserDisabled      = "auth/user-disabled"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeNoCurrentUser     = "auth/no-current-user"
	CodeExpiredActionCode = "auth/expired-action-code"
)

type Error struct {
	code string
	Err  error
}

func NewError(code string) *Error {
	return &Error{code: code}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "identity: " + e.code + ": " + e.Err.Error()
	}
	return "identity: " + e.code
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Code() string {
	return e.code
}
