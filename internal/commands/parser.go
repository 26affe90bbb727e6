package commands

import (
	"errors"
	"strconv"
	"strings"

	"github.com/stormix/stormbot/internal/store"
)

// ErrMissingClosingQuote is returned when a quoted response never closes.
var ErrMissingClosingQuote = errors.New("missing closing quote")

// responseSpec is the parsed form of `artisan commands add/edit` arguments:
// the command name, its response text and whether the response was a code
// fence (which marks the command DYNAMIC).
type responseSpec struct {
	Command  string
	Response string
	Type     store.CommandType
	Cooldown int
}

// parseResponseSpec parses args of the shape
//
//	<command> <response...> [cooldown]
//
// The response may be a single word, a quoted string ('...', "..." or `...`)
// or a ``` code fence. A trailing number outside the quotes is the cooldown.
func parseResponseSpec(args []string) (responseSpec, error) {
	spec := responseSpec{Command: args[0], Type: store.CommandStatic}
	rest := strings.Join(args[1:], " ")
	if rest == "" {
		return spec, nil
	}

	isCode := strings.HasPrefix(rest, "```")
	if isCode {
		spec.Type = store.CommandDynamic
	}

	quote := rest[0]
	if quote == '\'' || quote == '"' || quote == '`' {
		closing := strings.LastIndexByte(rest[1:], quote)
		if closing == -1 {
			return spec, ErrMissingClosingQuote
		}
		closing++ // offset for the skipped opening byte
		if isCode {
			spec.Response = strings.TrimSpace(rest[3 : closing-2])
		} else {
			spec.Response = strings.TrimSpace(rest[1:closing])
		}
		spec.Cooldown = parseCooldown(rest[closing+1:])
		return spec, nil
	}

	fields := strings.Fields(rest)
	spec.Response = fields[0]
	if len(fields) > 1 {
		spec.Cooldown = parseCooldown(fields[len(fields)-1])
	}
	return spec, nil
}

func parseCooldown(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
