package adapters

import "strings"

// ircMessage is one parsed IRC line in the Twitch dialect: optional
// @key=value tags, optional :prefix, command, middle params and an optional
// trailing param.
type ircMessage struct {
	Tags     map[string]string
	Nick     string
	Command  string
	Params   []string
	Trailing string
}

// parseIRC parses a single IRC line. It never fails: malformed fragments
// degrade to empty fields.
func parseIRC(line string) ircMessage {
	msg := ircMessage{Tags: map[string]string{}}
	line = strings.TrimRight(line, "\r\n")

	if strings.HasPrefix(line, "@") {
		raw, rest, _ := strings.Cut(line[1:], " ")
		line = rest
		for _, pair := range strings.Split(raw, ";") {
			key, value, _ := strings.Cut(pair, "=")
			msg.Tags[key] = unescapeTag(value)
		}
	}

	if strings.HasPrefix(line, ":") {
		prefix, rest, _ := strings.Cut(line[1:], " ")
		line = rest
		// nick!user@host; a server prefix has no "!".
		msg.Nick, _, _ = strings.Cut(prefix, "!")
	}

	if body, trailing, found := strings.Cut(line, " :"); found {
		line = body
		msg.Trailing = trailing
	}

	fields := strings.Fields(line)
	if len(fields) > 0 {
		msg.Command = fields[0]
		msg.Params = fields[1:]
	}
	return msg
}

// unescapeTag reverses IRCv3 tag value escaping.
func unescapeTag(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] != '\\' || i == len(value)-1 {
			b.WriteByte(value[i])
			continue
		}
		i++
		switch value[i] {
		case ':':
			b.WriteByte(';')
		case 's':
			b.WriteByte(' ')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(value[i])
		}
	}
	return b.String()
}
