package cli

import (
	"fmt"
	"strings"

	"github.com/goserg/clubconnect/internal/domain"
)

func printClubs(clubs []domain.Club) string {
	if len(clubs) == 0 {
		return "No clubs found."
	}
	var b strings.Builder
	for _, c := range clubs {
		fmt.Fprintf(&b, "%s  %s (%s)\n", c.ID, c.Name, c.Category)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func printClub(c domain.Club, events []domain.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\nCategory: %s\nMembers: %d\n", c.Name, c.Description, c.Category, c.MemberCount)
	for _, line := range []struct{ label, value string }{
		{"Email", c.ContactEmail},
		{"Phone", c.ContactPhone},
		{"Social", c.Social},
		{"Website", c.Website},
	} {
		if line.value != "" {
			fmt.Fprintf(&b, "%s: %s\n", line.label, line.value)
		}
	}
	b.WriteString("Upcoming events:\n")
	b.WriteString(printEvents(events, nil))
	return b.String()
}

// printEvents lists events, marking the ids in marked with a star.
func printEvents(events []domain.Event, marked func(id string) bool) string {
	if len(events) == 0 {
		return "No events found."
	}
	var b strings.Builder
	for _, e := range events {
		star := " "
		if marked != nil && marked(e.ID) {
			star = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s %s  %s (%s)\n", star, e.ID, e.Date, e.Time, e.Title, e.ClubName)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func printEvent(e domain.Event, saved, registered bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", e.Title, e.Description)
	fmt.Fprintf(&b, "When: %s %s\nWhere: %s\nClub: %s\nType: %s\n", e.Date, e.Time, e.Location, e.ClubName, e.Category)
	fmt.Fprintf(&b, "Registered: %d\n", e.RegistrationCount)
	if e.HasExternalRegistration() {
		fmt.Fprintf(&b, "Sign up at: %s\n", e.RegistrationLink)
	}
	if saved {
		b.WriteString("You saved this event.\n")
	}
	if registered {
		b.WriteString("You are registered.\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func printUser(u domain.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>\n", u.Name(), u.Email)
	if u.RollNo != "" {
		fmt.Fprintf(&b, "Roll number: %s\n", u.RollNo)
	}
	fmt.Fprintf(&b, "Role: %s\n", u.Role)
	if !u.EmailVerified {
		b.WriteString("Email not verified.\n")
	}
	fmt.Fprintf(&b, "Saved: %d, registered: %d", len(u.SavedEventIDs), len(u.RegisteredEventIDs))
	return b.String()
}
