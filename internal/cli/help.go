package cli

import (
	"context"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

type HelpCommand struct {
	commands map[string]Command
	role     func() string
}

func (c *HelpCommand) Run(_ context.Context, args []string) (string, error) {
	role := c.role()
	if len(args) == 1 {
		command, ok := c.commands[args[0]]
		if !ok || !command.Visibility().Contains(role) {
			return "", ErrUnknownCommand
		}
		return command.Help(), nil
	}

	names := make([]string, 0, len(c.commands))
	for name, command := range c.commands {
		if command.Visibility().Contains(role) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range names {
		b.WriteString("  ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("Run help <command> for details.")
	return b.String(), nil
}

func (c *HelpCommand) Help() string {
	return "Lists the available commands."
}

func (c *HelpCommand) Permission() mapset.Set[string] {
	return everyone()
}

func (c *HelpCommand) Visibility() mapset.Set[string] {
	return everyone()
}
