package bot

import (
	"context"
	"errors"
	"testing"
)

func TestBrainRoutesByActivityType(t *testing.T) {
	brain := NewBrain(testLogger())
	conversational := newFakeSkill("conversation", ActivityConversation)
	musical := newFakeSkill("music", ActivityAddSongToQueue, ActivitySkipSong)
	brain.Register(conversational)
	brain.Register(musical)

	results := brain.Handle(context.Background(), Activity{
		Type:    ActivityConversation,
		Payload: ConversationPayload{Text: "hello"},
	})

	if len(results) != 1 || results[0].Skill != "conversation" {
		t.Fatalf("results = %+v", results)
	}
	if conversational.handledCount() != 1 {
		t.Error("conversation skill not invoked")
	}
	if musical.handledCount() != 0 {
		t.Error("music skill invoked for conversation activity")
	}
}

func TestBrainFanOutToAllInterested(t *testing.T) {
	brain := NewBrain(testLogger())
	reader := newFakeSkill("reader", ActivityReadChat)
	relay := newFakeSkill("relay", ActivityReadChat)
	brain.Register(reader)
	brain.Register(relay)

	results := brain.Handle(context.Background(), Activity{
		Type:    ActivityReadChat,
		Payload: ReadChatPayload{Username: "viewer", Text: "hi"},
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if reader.handledCount() != 1 || relay.handledCount() != 1 {
		t.Error("not all interested skills were invoked")
	}
}

func TestBrainFailingSkillDoesNotBlockSiblings(t *testing.T) {
	brain := NewBrain(testLogger())
	broken := newFakeSkill("broken", ActivityConversation)
	broken.err = errFake
	healthy := newFakeSkill("healthy", ActivityConversation)
	healthy.reply = "still here"
	brain.Register(broken)
	brain.Register(healthy)

	results := brain.Handle(context.Background(), Activity{
		Type:    ActivityConversation,
		Payload: ConversationPayload{Text: "hello"},
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	byName := map[string]SkillResult{}
	for _, r := range results {
		byName[r.Skill] = r
	}
	if !errors.Is(byName["broken"].Err, errFake) {
		t.Errorf("broken result err = %v", byName["broken"].Err)
	}
	if byName["healthy"].Err != nil || byName["healthy"].Reply != "still here" {
		t.Errorf("healthy result = %+v", byName["healthy"])
	}
}

func TestBrainPanickingSkillIsContained(t *testing.T) {
	brain := NewBrain(testLogger())
	panicky := newFakeSkill("panicky", ActivityRoulette)
	panicky.panics = true
	brain.Register(panicky)

	results := brain.Handle(context.Background(), Activity{
		Type:    ActivityRoulette,
		Payload: RoulettePayload{Username: "viewer"},
	})

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Err == nil {
		t.Fatal("panic not converted to an error result")
	}
}

func TestBrainNoInterestedSkills(t *testing.T) {
	brain := NewBrain(testLogger())
	brain.Register(newFakeSkill("music", ActivityAddSongToQueue))

	results := brain.Handle(context.Background(), Activity{
		Type:    ActivityEndStream,
		Payload: EndStreamPayload{},
	})

	if len(results) != 0 {
		t.Fatalf("results = %+v, want none", results)
	}
}

func TestReplies(t *testing.T) {
	results := []SkillResult{
		{Skill: "a", Reply: "first"},
		{Skill: "b", Err: errFake, Reply: "poisoned"},
		{Skill: "c", Reply: ""},
		{Skill: "d", Reply: "second"},
	}
	if got := Replies(results); got != "first second" {
		t.Fatalf("Replies = %q", got)
	}
	if got := Replies(nil); got != "" {
		t.Fatalf("Replies(nil) = %q", got)
	}
}

func TestActivityTypeByName(t *testing.T) {
	if got, ok := ActivityTypeByName("shake_screen"); !ok || got != ActivityShakeScreen {
		t.Fatalf("got %q ok=%v", got, ok)
	}
	if _, ok := ActivityTypeByName("explode"); ok {
		t.Fatal("unknown name resolved")
	}
}
