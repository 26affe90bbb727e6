package bot

import "context"

// Skill is an independently pluggable handler for one or more activity
// types. A skill catches and reports its own integration failures; the error
// it returns is recorded in the SkillResult but never interrupts siblings.
type Skill interface {
	Name() string
	// CanHandle is a pure membership test against the skill's declared
	// activity-type set.
	CanHandle(activity Activity) bool
	// Handle processes the activity. The returned string, if non-empty, is a
	// reply the caller may deliver (the conversation skill uses this);
	// skills that send their own replies return "".
	Handle(ctx context.Context, activity Activity) (string, error)
}

// SkillBase provides the declared-interest bookkeeping shared by all skills.
// Embed it and pass the activity types at construction.
type SkillBase struct {
	types map[ActivityType]struct{}
}

// NewSkillBase builds a SkillBase interested in the given activity types.
func NewSkillBase(types ...ActivityType) SkillBase {
	set := make(map[ActivityType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return SkillBase{types: set}
}

// CanHandle reports whether the activity's type is in the declared set.
func (b SkillBase) CanHandle(activity Activity) bool {
	_, ok := b.types[activity.Type]
	return ok
}
