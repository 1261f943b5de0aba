package cli

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/goserg/clubconnect/internal/feed"
	"github.com/goserg/clubconnect/internal/saved"
)

type SaveCommand struct {
	saved *saved.Cache
}

func (c *SaveCommand) Run(ctx context.Context, args []string) (string, error) {
	pos, err := parse(newFlags("save"), args, 1)
	if err != nil {
		return "", err
	}
	if err := c.saved.Save(ctx, pos[0]); err != nil {
		return "", err
	}
	return "Event saved.", nil
}

func (c *SaveCommand) Help() string {
	return `Saves an event for later. Usage: save <event id>`
}

func (c *SaveCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *SaveCommand) Visibility() mapset.Set[string] {
	return everyone()
}

type UnsaveCommand struct {
	saved *saved.Cache
}

func (c *UnsaveCommand) Run(ctx context.Context, args []string) (string, error) {
	pos, err := parse(newFlags("unsave"), args, 1)
	if err != nil {
		return "", err
	}
	if err := c.saved.Remove(ctx, pos[0]); err != nil {
		return "", err
	}
	return "Event removed from saved.", nil
}

func (c *UnsaveCommand) Help() string {
	return `Removes a saved event. Usage: unsave <event id>`
}

func (c *UnsaveCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *UnsaveCommand) Visibility() mapset.Set[string] {
	return everyone()
}

type SavedCommand struct {
	feed *feed.Feed
}

func (c *SavedCommand) Run(_ context.Context, _ []string) (string, error) {
	return printEvents(c.feed.Saved(), nil), nil
}

func (c *SavedCommand) Help() string {
	return `Lists saved events that still exist.`
}

func (c *SavedCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *SavedCommand) Visibility() mapset.Set[string] {
	return everyone()
}

type RegisterCommand struct {
	saved *saved.Cache
}

func (c *RegisterCommand) Run(ctx context.Context, args []string) (string, error) {
	pos, err := parse(newFlags("register"), args, 1)
	if err != nil {
		return "", err
	}
	if err := c.saved.Register(ctx, pos[0]); err != nil {
		return "", err
	}
	return "You are registered.", nil
}

func (c *RegisterCommand) Help() string {
	return `Registers you for an event. Usage: register <event id>`
}

func (c *RegisterCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *RegisterCommand) Visibility() mapset.Set[string] {
	return members()
}

type UnregisterCommand struct {
	saved *saved.Cache
}

func (c *UnregisterCommand) Run(ctx context.Context, args []string) (string, error) {
	pos, err := parse(newFlags("unregister"), args, 1)
	if err != nil {
		return "", err
	}
	if err := c.saved.Unregister(ctx, pos[0]); err != nil {
		return "", err
	}
	return "Registration cancelled.", nil
}

func (c *UnregisterCommand) Help() string {
	return `Cancels a registration. Usage: unregister <event id>`
}

func (c *UnregisterCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *UnregisterCommand) Visibility() mapset.Set[string] {
	return members()
}

type RegisteredCommand struct {
	feed *feed.Feed
}

func (c *RegisteredCommand) Run(_ context.Context, _ []string) (string, error) {
	return printEvents(c.feed.Registered(), nil), nil
}

func (c *RegisteredCommand) Help() string {
	return `Lists the events you registered for.`
}

func (c *RegisteredCommand) Permission() mapset.Set[string] {
	return members()
}

func (c *RegisteredCommand) Visibility() mapset.Set[string] {
	return members()
}
