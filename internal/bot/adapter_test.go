package bot

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		text    string
		keyword string
		args    []string
		ok      bool
	}{
		{name: "plain command", prefix: "^", text: "^ping", keyword: "ping", ok: true},
		{name: "with args", prefix: "^", text: "^artisan commands list", keyword: "artisan", args: []string{"commands", "list"}, ok: true},
		{name: "keyword case folded", prefix: "^", text: "^PING", keyword: "ping", ok: true},
		{name: "args keep case", prefix: "^", text: "^hitman SomeUser", keyword: "hitman", args: []string{"SomeUser"}, ok: true},
		{name: "run of whitespace", prefix: "^", text: "^ping   now \t please", keyword: "ping", args: []string{"now", "please"}, ok: true},
		{name: "no prefix", prefix: "^", text: "ping", ok: false},
		{name: "prefix mid-text", prefix: "^", text: "hey ^ping", ok: false},
		{name: "bare prefix", prefix: "^", text: "^", ok: false},
		{name: "prefix then whitespace", prefix: "^", text: "^   ", ok: false},
		{name: "multi-char prefix", prefix: "!!", text: "!!version", keyword: "version", ok: true},
		{name: "empty prefix never matches", prefix: "", text: "ping", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyword, args, ok := ParseCommand(tt.prefix, tt.text)
			if ok != tt.ok {
				t.Fatalf("ParseCommand(%q, %q) ok = %v, want %v", tt.prefix, tt.text, ok, tt.ok)
			}
			if keyword != tt.keyword {
				t.Errorf("keyword = %q, want %q", keyword, tt.keyword)
			}
			if len(args) != len(tt.args) || (len(tt.args) > 0 && !reflect.DeepEqual(args, tt.args)) {
				t.Errorf("args = %v, want %v", args, tt.args)
			}
		})
	}
}
