package bot

import "context"

// Hook runs code at bot lifecycle edges. OnStart fires during setup, OnReady
// after every adapter reported ready, OnStop during shutdown.
type Hook interface {
	Name() string
	OnStart(ctx context.Context) error
	OnReady(ctx context.Context) error
	OnStop() error
}

// HookFactory builds a hook against a bot instance.
type HookFactory func(*Bot) Hook
