package chat

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session holds the running conversation for one UI session. The session is
// owned by the caller: the gateway reads the turn history but never appends
// to it, so switching providers keeps the history intact.
type Session struct {
	Provider string `json:"provider"`
	Turns    []Turn `json:"turns"`
}

// Append adds a turn to the history.
func (s *Session) Append(role Role, content string) {
	s.Turns = append(s.Turns, Turn{Role: role, Content: content})
}

// Clear discards the conversation history.
func (s *Session) Clear() {
	s.Turns = nil
}
