package cli

import (
	"context"
	"errors"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/session"
	"github.com/goserg/clubconnect/internal/user"
)

type SignupCommand struct {
	session *session.Session
}

func (c *SignupCommand) Run(ctx context.Context, args []string) (string, error) {
	fs := newFlags("signup")
	name := fs.String("name", "", "")
	roll := fs.String("roll", "", "")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return "", err
	}
	if _, err := c.session.Register(ctx, pos[0], pos[1], session.RegisterFields{FullName: *name, RollNo: *roll}); err != nil {
		return "", err
	}
	return "Welcome, " + c.session.User().Name() + "!", nil
}

func (c *SignupCommand) Help() string {
	return `Creates an account and signs in. Usage: signup -name "Full Name" -roll <roll number> <email> <password>`
}

func (c *SignupCommand) Permission() mapset.Set[string] {
	return guests()
}

func (c *SignupCommand) Visibility() mapset.Set[string] {
	return guests()
}

type LoginCommand struct {
	session *session.Session
}

func (c *LoginCommand) Run(ctx context.Context, args []string) (string, error) {
	pos, err := parse(newFlags("login"), args, 2)
	if err != nil {
		return "", err
	}
	if err := c.session.Login(ctx, pos[0], pos[1]); err != nil {
		return "", err
	}
	return "Signed in as " + c.session.User().Name() + ".", nil
}

func (c *LoginCommand) Help() string {
	return `Signs in. Usage: login <email> <password>`
}

func (c *LoginCommand) Permission() mapset.Set[string] {
	return guests()
}

func (c *LoginCommand) Visibility() mapset.Set[string] {
	return guests()
}

type LogoutCommand struct {
	session *session.Session
}

func (c *LogoutCommand) Run(ctx context.Context, _ []string) (string, error) {
	if err := c.session.Logout(ctx); err != nil {
		return "", err
	}
	return "Signed out.", nil
}

func (c *LogoutCommand) Help() string {
	return `Signs out.`
}

func (c *LogoutCommand) Permission() mapset.Set[string] {
	return members()
}

func (c *LogoutCommand) Visibility() mapset.Set[string] {
	return members()
}

type WhoamiCommand struct {
	session *session.Session
}

func (c *WhoamiCommand) Run(_ context.Context, _ []string) (string, error) {
	snap := c.session.Snapshot()
	if snap.User == nil {
		return "Not signed in.", nil
	}
	text := printUser(*snap.User)
	if snap.Degraded {
		text += "\nProfile could not be loaded, showing account details only."
	}
	return text, nil
}

func (c *WhoamiCommand) Help() string {
	return `Shows who is signed in.`
}

func (c *WhoamiCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *WhoamiCommand) Visibility() mapset.Set[string] {
	return everyone()
}

type ResetPasswordCommand struct {
	session *session.Session
}

func (c *ResetPasswordCommand) Run(ctx context.Context, args []string) (string, error) {
	pos, err := parse(newFlags("reset-password"), args, 1)
	if err != nil {
		return "", err
	}
	if err := c.session.ResetPassword(ctx, pos[0]); err != nil {
		return "", err
	}
	return "Password reset email sent.", nil
}

func (c *ResetPasswordCommand) Help() string {
	return `Sends a password reset email. Usage: reset-password <email>`
}

func (c *ResetPasswordCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *ResetPasswordCommand) Visibility() mapset.Set[string] {
	return guests()
}

type ProfileCommand struct {
	session *session.Session
}

func (c *ProfileCommand) Run(ctx context.Context, args []string) (string, error) {
	fs := newFlags("profile")
	var upd session.ProfileUpdate
	fs.Func("name", "", func(s string) error { upd.FullName = &s; return nil })
	fs.Func("roll", "", func(s string) error { upd.RollNo = &s; return nil })
	fs.Func("display", "", func(s string) error { upd.DisplayName = &s; return nil })
	if _, err := parse(fs, args, 0); err != nil {
		return "", err
	}
	if err := c.session.UpdateProfile(ctx, upd); err != nil {
		return "", err
	}
	return printUser(*c.session.User()), nil
}

func (c *ProfileCommand) Help() string {
	return `Updates your profile. Usage: profile [-name "Full Name"] [-roll <roll number>] [-display <display name>]`
}

func (c *ProfileCommand) Permission() mapset.Set[string] {
	return members()
}

func (c *ProfileCommand) Visibility() mapset.Set[string] {
	return members()
}

type VerifyCommand struct {
	session *session.Session
}

func (c *VerifyCommand) Run(ctx context.Context, _ []string) (string, error) {
	if err := c.session.ResendVerification(ctx); err != nil {
		return "", err
	}
	return "Verification email sent.", nil
}

func (c *VerifyCommand) Help() string {
	return `Sends the email verification link again.`
}

func (c *VerifyCommand) Permission() mapset.Set[string] {
	return members()
}

func (c *VerifyCommand) Visibility() mapset.Set[string] {
	return members()
}

var errSameRole = errors.New("you already have this role")

type RoleCommand struct {
	session       *session.Session
	users         *user.Repository
	adminPassword string
}

func (c *RoleCommand) Run(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrUsage
	}
	u := c.session.User()
	role := args[0]
	switch role {
	case domain.RoleAdmin, domain.RoleClubAdmin:
		if len(args) != 2 || c.adminPassword == "" || args[1] != c.adminPassword {
			return "", ErrUsage
		}
	case domain.RoleStudent:
		if len(args) != 1 {
			return "", ErrUsage
		}
	default:
		return "", ErrUsage
	}
	if u.Role == role {
		return "", errSameRole
	}
	if err := c.users.Update(ctx, u.ID, user.Update{Role: &role}); err != nil {
		return "", err
	}
	c.session.Refresh(ctx)
	return "Role updated to " + role + ".", nil
}

func (c *RoleCommand) Help() string {
	return `Changes your role. Usage: role student | role admin <password> | role club_admin <password>`
}

func (c *RoleCommand) Permission() mapset.Set[string] {
	return members()
}

func (c *RoleCommand) Visibility() mapset.Set[string] {
	return organizers()
}
