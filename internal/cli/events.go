package cli

import (
	"context"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/event"
	"github.com/goserg/clubconnect/internal/feed"
	"github.com/goserg/clubconnect/internal/saved"
	"github.com/goserg/clubconnect/internal/session"
)

type EventsCommand struct {
	events *event.Repository
	feed   *feed.Feed
	saved  *saved.Cache
}

func (c *EventsCommand) Run(ctx context.Context, args []string) (string, error) {
	fs := newFlags("events")
	clubID := fs.String("club", "", "")
	category := fs.String("category", "", "")
	search := fs.String("search", "", "")
	upcoming := fs.Bool("upcoming", false, "")
	past := fs.Bool("past", false, "")
	featured := fs.Bool("featured", false, "")
	date := fs.String("date", "", "")
	limit := fs.Int("limit", 0, "")
	if _, err := parse(fs, args, 0); err != nil {
		return "", err
	}

	var (
		events []domain.Event
		err    error
	)
	filters := event.Filters{ClubID: *clubID, Category: *category, Upcoming: *upcoming}
	if *featured {
		filters.Featured = featured
	}
	switch {
	case *date != "":
		d, perr := domain.ParseDate(*date)
		if perr != nil {
			return "", ErrUsage
		}
		events, err = c.events.ListForDate(ctx, d)
	case *search != "":
		events, err = c.events.Search(ctx, *search, filters)
	case *past:
		events = c.feed.Past()
	case *upcoming && *clubID == "" && *category == "" && !*featured:
		events, err = c.events.ListUpcoming(ctx, *limit)
	default:
		events, err = c.events.ListAll(ctx, filters)
	}
	if err != nil {
		return "", err
	}
	if *limit > 0 && len(events) > *limit {
		events = events[:*limit]
	}
	return printEvents(events, c.saved.IsSaved), nil
}

func (c *EventsCommand) Help() string {
	return `Lists events by date. Saved events are starred.
Usage: events [-club id] [-category type] [-upcoming | -past] [-featured] [-search text] [-date YYYY-MM-DD] [-limit n]`
}

func (c *EventsCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *EventsCommand) Visibility() mapset.Set[string] {
	return everyone()
}

type EventCommand struct {
	events  *event.Repository
	feed    *feed.Feed
	saved   *saved.Cache
	session *session.Session
}

func (c *EventCommand) Run(ctx context.Context, args []string) (string, error) {
	pos, err := parse(newFlags("event"), args, 1)
	if err != nil {
		return "", err
	}
	e, err := c.events.Get(ctx, pos[0])
	if err != nil {
		return "", err
	}
	text := printEvent(e, c.saved.IsSaved(e.ID), c.saved.IsRegistered(e.ID))

	u := c.session.User()
	if u == nil || !organizers().Contains(u.Role) {
		return text, nil
	}
	regs, err := c.events.ListRegistrations(ctx, e.ID)
	if err != nil {
		return "", err
	}
	text += "\nRegistrations:"
	for i, r := range regs {
		text += "\n  " + strconv.Itoa(i+1) + ". " + r.UserName + " <" + r.UserEmail + ">"
	}
	return text, nil
}

func (c *EventCommand) Help() string {
	return `Shows an event. Organizers also see who registered. Usage: event <id>`
}

func (c *EventCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *EventCommand) Visibility() mapset.Set[string] {
	return everyone()
}
