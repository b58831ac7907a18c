// Package schema holds the shared types exchanged between the conversation
// store, the completion client, and the channel adapters.
package schema

// Role tags one side of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message unit. Immutable once created.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}
