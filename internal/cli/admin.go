package cli

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/goserg/clubconnect/internal/club"
	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/event"
)

type AddClubCommand struct {
	clubs *club.Repository
}

func (c *AddClubCommand) Run(ctx context.Context, args []string) (string, error) {
	fs := newFlags("add-club")
	var in domain.NewClub
	fs.StringVar(&in.Name, "name", "", "")
	fs.StringVar(&in.Description, "description", "", "")
	fs.StringVar(&in.Category, "category", "", "")
	fs.StringVar(&in.LogoURL, "logo", "", "")
	fs.StringVar(&in.ContactEmail, "email", "", "")
	fs.StringVar(&in.ContactPhone, "phone", "", "")
	fs.StringVar(&in.Social, "social", "", "")
	fs.StringVar(&in.Website, "website", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return "", err
	}
	cl, err := c.clubs.Create(ctx, in)
	if err != nil {
		return "", err
	}
	return "Club created: " + cl.ID, nil
}

func (c *AddClubCommand) Help() string {
	return `Creates a club.
Usage: add-club -name <name> -description <text> -category <category> [-logo url] [-email addr] [-phone n] [-social handle] [-website url]`
}

func (c *AddClubCommand) Permission() mapset.Set[string] {
	return organizers()
}

func (c *AddClubCommand) Visibility() mapset.Set[string] {
	return organizers()
}

type AddEventCommand struct {
	clubs  *club.Repository
	events *event.Repository
}

func (c *AddEventCommand) Run(ctx context.Context, args []string) (string, error) {
	fs := newFlags("add-event")
	var in domain.NewEvent
	fs.StringVar(&in.Title, "title", "", "")
	fs.StringVar(&in.Description, "description", "", "")
	fs.Func("date", "", func(s string) error {
		d, err := domain.ParseDate(s)
		in.Date = d
		return err
	})
	fs.StringVar(&in.Time, "time", "", "")
	fs.StringVar(&in.Location, "location", "", "")
	fs.StringVar(&in.ClubID, "club", "", "")
	fs.StringVar(&in.Category, "type", "", "")
	fs.StringVar(&in.RegistrationLink, "link", "", "")
	fs.BoolVar(&in.IsFeatured, "featured", false, "")
	if _, err := parse(fs, args, 0); err != nil {
		return "", err
	}
	if in.ClubID != "" {
		cl, err := c.clubs.Get(ctx, in.ClubID)
		if err != nil {
			return "", err
		}
		in.ClubName = cl.Name
	}
	e, err := c.events.Create(ctx, in)
	if err != nil {
		return "", err
	}
	return "Event created: " + e.ID, nil
}

func (c *AddEventCommand) Help() string {
	return `Creates an event.
Usage: add-event -club <club id> -title <title> -description <text> -date YYYY-MM-DD -time HH:MM -location <place> -type <type> [-link url] [-featured]`
}

func (c *AddEventCommand) Permission() mapset.Set[string] {
	return organizers()
}

func (c *AddEventCommand) Visibility() mapset.Set[string] {
	return organizers()
}
