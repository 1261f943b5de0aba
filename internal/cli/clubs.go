package cli

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/goserg/clubconnect/internal/club"
	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/feed"
)

type ClubsCommand struct {
	clubs *club.Repository
}

func (c *ClubsCommand) Run(ctx context.Context, args []string) (string, error) {
	fs := newFlags("clubs")
	category := fs.String("category", "", "")
	search := fs.String("search", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return "", err
	}

	var (
		clubs []domain.Club
		err   error
	)
	switch {
	case *search != "":
		clubs, err = c.clubs.Search(ctx, *search)
	case *category != "":
		clubs, err = c.clubs.ListByCategory(ctx, *category)
	default:
		clubs, err = c.clubs.ListAll(ctx)
	}
	if err != nil {
		return "", err
	}
	return printClubs(clubs), nil
}

func (c *ClubsCommand) Help() string {
	return `Lists clubs by name. Usage: clubs [-category name] [-search text]`
}

func (c *ClubsCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *ClubsCommand) Visibility() mapset.Set[string] {
	return everyone()
}

type ClubCommand struct {
	clubs *club.Repository
	feed  *feed.Feed
}

func (c *ClubCommand) Run(ctx context.Context, args []string) (string, error) {
	pos, err := parse(newFlags("club"), args, 1)
	if err != nil {
		return "", err
	}
	cl, err := c.clubs.Get(ctx, pos[0])
	if err != nil {
		return "", err
	}
	var upcoming []domain.Event
	for _, e := range c.feed.Upcoming() {
		if e.ClubID == cl.ID {
			upcoming = append(upcoming, e)
		}
	}
	return printClub(cl, upcoming), nil
}

func (c *ClubCommand) Help() string {
	return `Shows a club and its upcoming events. Usage: club <id>`
}

func (c *ClubCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *ClubCommand) Visibility() mapset.Set[string] {
	return everyone()
}
