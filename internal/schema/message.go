package schema

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a prompt sent to the LLM.
// Role is one of RoleSystem, RoleUser, RoleAssistant.
type Message struct {
	Role    string
	Content string
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
