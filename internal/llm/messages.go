package llm

import "time"

// Role tags an entry of the conversation log sent to the completion endpoint.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one role-tagged item of the conversation log.
type Entry struct {
	Role    Role
	Content string
	Time    time.Time
}

// Sender identifies who a visible chat message is attributed to.
type Sender string

const (
	SenderUser      Sender = "User"
	SenderAssistant Sender = "Assistant"
	SenderSystem    Sender = "System"
)

// Message is a chat message shown to the user. It is distinct from Entry:
// tool calls and tool output are logged but never shown as messages, and
// system notices are shown but never logged.
type Message struct {
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
