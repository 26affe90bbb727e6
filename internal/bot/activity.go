package bot

// ActivityType tags the semantic kind of an Activity. The set is closed;
// adapters and skills agree on these names, and the Twitch reward mapping in
// the config refers to them by string.
type ActivityType string

const (
	ActivityConversation   ActivityType = "conversation"
	ActivityAddSongToQueue ActivityType = "add_song_to_queue"
	ActivitySkipSong       ActivityType = "skip_song"
	ActivityVotekick       ActivityType = "votekick"
	ActivityEndStream      ActivityType = "end_stream"
	ActivityReadChat       ActivityType = "read_chat"
	ActivityShakeScreen    ActivityType = "shake_screen"
	ActivityRoulette       ActivityType = "roulette"
	ActivityHitman         ActivityType = "hitman"
)

// ActivityTypeByName resolves a configured activity type name. The bool is
// false for names outside the closed set.
func ActivityTypeByName(name string) (ActivityType, bool) {
	switch t := ActivityType(name); t {
	case ActivityConversation, ActivityAddSongToQueue, ActivitySkipSong,
		ActivityVotekick, ActivityEndStream, ActivityReadChat,
		ActivityShakeScreen, ActivityRoulette, ActivityHitman:
		return t, true
	}
	return "", false
}

// Payload is the typed payload of an Activity. Every payload carries the
// originating Context so a skill can reply without knowing the transport.
type Payload interface {
	Context() *Context
	payload()
}

// Activity is a transient, typed envelope routed to interested skills.
// Constructed by an adapter or another skill, consumed exactly once by all
// matching skills, then discarded.
type Activity struct {
	Type    ActivityType
	Payload Payload
}

// ConversationPayload carries a free-form conversational message.
type ConversationPayload struct {
	Text     string
	FromID   string
	FromName string
	Ctx      *Context
}

func (p ConversationPayload) Context() *Context { return p.Ctx }
func (ConversationPayload) payload()            {}

// SongRequestPayload carries a song-queue add request.
type SongRequestPayload struct {
	Song string
	Ctx  *Context
}

func (p SongRequestPayload) Context() *Context { return p.Ctx }
func (SongRequestPayload) payload()            {}

// SkipSongPayload carries a song skip request.
type SkipSongPayload struct {
	Ctx *Context
}

func (p SkipSongPayload) Context() *Context { return p.Ctx }
func (SkipSongPayload) payload()            {}

// VotekickPayload carries a vote-kick request against Username.
type VotekickPayload struct {
	Username string
	Ctx      *Context
}

func (p VotekickPayload) Context() *Context { return p.Ctx }
func (VotekickPayload) payload()            {}

// EndStreamPayload requests the broadcast be ended.
type EndStreamPayload struct {
	Ctx *Context
}

func (p EndStreamPayload) Context() *Context { return p.Ctx }
func (EndStreamPayload) payload()            {}

// ReadChatPayload carries a chat line to relay to external consumers.
type ReadChatPayload struct {
	Username string
	Text     string
	Ctx      *Context
}

func (p ReadChatPayload) Context() *Context { return p.Ctx }
func (ReadChatPayload) payload()            {}

// ShakeScreenPayload triggers the overlay screen shake.
type ShakeScreenPayload struct {
	Username string
	Text     string
	Ctx      *Context
}

func (p ShakeScreenPayload) Context() *Context { return p.Ctx }
func (ShakeScreenPayload) payload()            {}

// RoulettePayload carries a self-targeted roulette roll.
type RoulettePayload struct {
	Username  string
	LastWords string
	Ctx       *Context
}

func (p RoulettePayload) Context() *Context { return p.Ctx }
func (RoulettePayload) payload()            {}

// HitmanPayload carries a roulette roll targeting another user.
type HitmanPayload struct {
	Username string
	Target   string
	Ctx      *Context
}

func (p HitmanPayload) Context() *Context { return p.Ctx }
func (HitmanPayload) payload()            {}
