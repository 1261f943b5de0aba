// Package cli runs the clubconnect commands against a started app.
package cli

import (
	"context"
	"errors"
	"flag"
	"io"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/app"
	"github.com/goserg/clubconnect/internal/domain"
)

// RoleGuest is the audience of a client nobody is signed in to.
const RoleGuest = "guest"

var (
	ErrUnknownCommand = errors.New("unknown command, try help")
	ErrForbidden      = errors.New("your role cannot run this command")
	ErrUsage          = errors.New("wrong arguments, try help <command>")
)

type Command interface {
	Run(ctx context.Context, args []string) (string, error)
	Help() string
	// Permission is the set of roles allowed to run the command.
	Permission() mapset.Set[string]
	// Visibility is the set of roles help lists the command for.
	Visibility() mapset.Set[string]
}

func everyone() mapset.Set[string] {
	return mapset.NewSet(RoleGuest, domain.RoleStudent, domain.RoleClubAdmin, domain.RoleAdmin)
}

func guests() mapset.Set[string] {
	return mapset.NewSet(RoleGuest)
}

func members() mapset.Set[string] {
	return mapset.NewSet(domain.RoleStudent, domain.RoleClubAdmin, domain.RoleAdmin)
}

func organizers() mapset.Set[string] {
	return mapset.NewSet(domain.RoleClubAdmin, domain.RoleAdmin)
}

type Commands struct {
	app  *app.App
	list map[string]Command
}

func NewCommands(a *app.App, adminPassword string) *Commands {
	hc := &HelpCommand{}
	cs := &Commands{
		app: a,
		list: map[string]Command{
			"help":           hc,
			"clubs":          &ClubsCommand{clubs: a.Clubs},
			"club":           &ClubCommand{clubs: a.Clubs, feed: a.Feed},
			"events":         &EventsCommand{events: a.Events, feed: a.Feed, saved: a.Saved},
			"event":          &EventCommand{events: a.Events, feed: a.Feed, saved: a.Saved, session: a.Session},
			"signup":         &SignupCommand{session: a.Session},
			"login":          &LoginCommand{session: a.Session},
			"logout":         &LogoutCommand{session: a.Session},
			"whoami":         &WhoamiCommand{session: a.Session},
			"reset-password": &ResetPasswordCommand{session: a.Session},
			"profile":        &ProfileCommand{session: a.Session},
			"verify":         &VerifyCommand{session: a.Session},
			"role":           &RoleCommand{session: a.Session, users: a.Users, adminPassword: adminPassword},
			"save":           &SaveCommand{saved: a.Saved},
			"unsave":         &UnsaveCommand{saved: a.Saved},
			"saved":          &SavedCommand{feed: a.Feed},
			"register":       &RegisterCommand{saved: a.Saved},
			"unregister":     &UnregisterCommand{saved: a.Saved},
			"registered":     &RegisteredCommand{feed: a.Feed},
			"add-club":       &AddClubCommand{clubs: a.Clubs},
			"add-event":      &AddEventCommand{clubs: a.Clubs, events: a.Events},
		},
	}
	hc.commands = cs.list
	hc.role = cs.role
	return cs
}

// role is the role of whoever is signed in, or RoleGuest.
func (cs *Commands) role() string {
	u := cs.app.Session.User()
	if u == nil {
		return RoleGuest
	}
	if u.Role == "" {
		return domain.RoleStudent
	}
	return u.Role
}

func (cs *Commands) RunCommand(ctx context.Context, cmd string, args []string) (string, error) {
	command, ok := cs.list[cmd]
	if !ok {
		return "", ErrUnknownCommand
	}
	role := cs.role()
	if !command.Permission().Contains(role) {
		if role == RoleGuest {
			return "", apperr.AuthRequired("Please sign in to continue.")
		}
		return "", ErrForbidden
	}
	return command.Run(ctx, args)
}

// Names returns the command names in alphabetical order.
func (cs *Commands) Names() []string {
	names := make([]string, 0, len(cs.list))
	for name := range cs.list {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parse parses args and checks the number of positional arguments left.
func parse(fs *flag.FlagSet, args []string, positional int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, ErrUsage
	}
	if fs.NArg() != positional {
		return nil, ErrUsage
	}
	return fs.Args(), nil
}
