package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// SkillResult records the outcome of one skill's handling of an activity.
type SkillResult struct {
	Skill string
	Reply string
	Err   error
}

// Brain routes activities to every registered skill that declares interest
// in the activity's type. All matching skills run concurrently; Handle waits
// for all of them and returns a per-skill success/failure record.
type Brain struct {
	log *slog.Logger

	mu     sync.RWMutex
	skills []Skill
}

// NewBrain creates an empty activity router.
func NewBrain(log *slog.Logger) *Brain {
	return &Brain{log: log.With("component", "brain")}
}

// Register adds a skill to the router.
func (b *Brain) Register(skill Skill) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.skills = append(b.skills, skill)
}

// Skills returns the number of registered skills.
func (b *Brain) Skills() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.skills)
}

// Handle fans the activity out to all interested skills and waits for every
// one to finish. A failing or panicking skill never prevents siblings from
// completing; its failure is captured in the corresponding SkillResult.
func (b *Brain) Handle(ctx context.Context, activity Activity) []SkillResult {
	b.mu.RLock()
	var matching []Skill
	for _, skill := range b.skills {
		if skill.CanHandle(activity) {
			matching = append(matching, skill)
		}
	}
	b.mu.RUnlock()

	results := make([]SkillResult, len(matching))
	var wg sync.WaitGroup
	for i, skill := range matching {
		wg.Add(1)
		go func(i int, skill Skill) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = SkillResult{Skill: skill.Name(), Err: fmt.Errorf("skill panicked: %v", r)}
				}
			}()
			reply, err := skill.Handle(ctx, activity)
			results[i] = SkillResult{Skill: skill.Name(), Reply: reply, Err: err}
		}(i, skill)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			b.log.Error("skill failed", "skill", r.Skill, "activity", activity.Type, "error", r.Err)
		}
	}
	return results
}

// Replies joins the non-empty replies of a result set into a single line.
func Replies(results []SkillResult) string {
	var parts []string
	for _, r := range results {
		if r.Err == nil && r.Reply != "" {
			parts = append(parts, r.Reply)
		}
	}
	return strings.Join(parts, " ")
}
