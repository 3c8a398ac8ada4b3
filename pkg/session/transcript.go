package session

// Speaker identifies who produced a transcript turn.
const (
	SpeakerUser  = "user"
	SpeakerAgent = "assistant"
)

// Turn is one entry in the ordered conversation transcript.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// transcript accumulates conversation turns. Not safe for concurrent
// use; the session serializes access.
type transcript struct {
	turns []Turn
}

// startUserTurn opens a fresh user turn, or resets the text of the
// current one if the user is already the latest speaker.
func (t *transcript) startUserTurn() {
	if n := len(t.turns); n > 0 && t.turns[n-1].Speaker == SpeakerUser {
		t.turns[n-1].Text = ""
		return
	}
	t.turns = append(t.turns, Turn{Speaker: SpeakerUser})
}

// setUserText replaces the current user turn's text with the latest
// full hypothesis, opening a turn if none is in progress.
func (t *transcript) setUserText(text string) {
	if n := len(t.turns); n > 0 && t.turns[n-1].Speaker == SpeakerUser {
		t.turns[n-1].Text = text
		return
	}
	t.turns = append(t.turns, Turn{Speaker: SpeakerUser, Text: text})
}

// appendAgentText appends to the current assistant turn with a
// separating space, or starts a new assistant turn after a user turn.
func (t *transcript) appendAgentText(text string) {
	if n := len(t.turns); n > 0 && t.turns[n-1].Speaker == SpeakerAgent {
		t.turns[n-1].Text += " " + text
		return
	}
	t.turns = append(t.turns, Turn{Speaker: SpeakerAgent, Text: text})
}

// snapshot returns a copy of the turns.
func (t *transcript) snapshot() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// reset clears all turns.
func (t *transcript) reset() {
	t.turns = nil
}
