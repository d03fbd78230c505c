package schema

// Messages is the ordered list of messages exchanged with the LLM.
// It owns typed append methods so callers never construct raw maps.
type Messages struct {
	Messages []Message
}

// NewMessages returns a Messages initialised with the given messages.
// Called with no arguments it returns an empty Messages ready for use.
func NewMessages(msgs ...Message) Messages {
	if len(msgs) == 0 {
		return Messages{Messages: make([]Message, 0)}
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return Messages{Messages: out}
}

// AddSystem appends a system message.
func (mh *Messages) AddSystem(content string) {
	mh.Messages = append(mh.Messages, NewSystemMessage(content))
}

// AddUser appends a user message.
func (mh *Messages) AddUser(content string) {
	mh.Messages = append(mh.Messages, NewUserMessage(content))
}

// Len returns the number of messages.
func (mh *Messages) Len() int { return len(mh.Messages) }

// System returns the concatenated content of all system messages, for
// backends that take the system prompt separately from the turns.
func (mh *Messages) System() string {
	out := ""
	for _, m := range mh.Messages {
		if m.Role != RoleSystem {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// NonSystem returns every message that is not a system message.
func (mh *Messages) NonSystem() []Message {
	out := make([]Message, 0, len(mh.Messages))
	for _, m := range mh.Messages {
		if m.Role != RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

// Clone returns a copy of mh with an independent backing slice.
func (mh *Messages) Clone() Messages {
	cloned := make([]Message, len(mh.Messages))
	copy(cloned, mh.Messages)
	return Messages{Messages: cloned}
}
