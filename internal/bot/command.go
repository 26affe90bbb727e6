package bot

import "context"

// CommandOptions declares the static flags of a built-in command.
type CommandOptions struct {
	Aliases   []string
	Cooldown  int
	Enabled   bool
	OwnerOnly bool
}

// Command is a built-in, statically registered command.
type Command interface {
	Name() string
	Options() CommandOptions
	Run(ctx context.Context, c *Context, args []string) error
}

// CommandFactory builds a built-in command against a bot instance. The
// registry of factories is assembled explicitly at startup; there is no
// runtime module discovery.
type CommandFactory func(*Bot) Command

// IsCommand reports whether keyword matches the command's canonical name or
// one of its declared aliases.
func IsCommand(cmd Command, keyword string) bool {
	if cmd.Name() == keyword {
		return true
	}
	for _, alias := range cmd.Options().Aliases {
		if alias == keyword {
			return true
		}
	}
	return false
}

// commandMeta is the gate-relevant view shared by built-in and stored
// commands.
type commandMeta struct {
	Name      string
	Enabled   bool
	OwnerOnly bool
	Cooldown  int
}

// checkFlags evaluates the authorization gate. It returns a user-facing
// rejection message, or "" when the command may run.
func checkFlags(meta commandMeta, c *Context) string {
	if !meta.Enabled {
		return c.AtAuthor + " this command is disabled!"
	}
	if meta.OwnerOnly && !c.Adapter.IsOwner(c.Message) {
		return c.AtAuthor + " this command can only be used by " + c.AtOwner + "! Do it one more time and I'll ban you!"
	}
	return ""
}
