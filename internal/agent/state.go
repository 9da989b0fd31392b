// Package agent implements the retrieve-then-generate state machine that
// produces answers about the indexed codebases.
package agent

import "github.com/bull/codebase-assistant/internal/storage"

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation.
type Message struct {
	Role    Role
	Content string
}

// TargetBoth selects retrieval across both repositories.
const TargetBoth = "both"

// State enumerates the orchestrator's phases. A run moves strictly
// forward: INIT, RETRIEVING, GENERATING, DONE. No cycles, no re-entry.
type State int

const (
	StateInit State = iota
	StateRetrieving
	StateGenerating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRetrieving:
		return "RETRIEVING"
	case StateGenerating:
		return "GENERATING"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Generation is the tagged outcome of the generation step. A failed
// generation still carries text: the user-facing message with the error
// embedded. Expected model failures are data, not control flow.
type Generation struct {
	Text   string
	Failed bool
}

// Conversation is the per-query state owned by the orchestrator for the
// duration of one run and discarded afterwards. There is no cross-query
// memory.
type Conversation struct {
	Messages  []Message
	Query     string
	Target    string // repository name or TargetBoth
	Retrieved []*storage.ScoredChunk
	Result    Generation
}

func newConversation(query, target string) *Conversation {
	if target == "" {
		target = TargetBoth
	}
	return &Conversation{
		Messages: []Message{{Role: RoleUser, Content: query}},
		Query:    query,
		Target:   target,
	}
}

// Response returns the final answer text, whether generation succeeded or
// surfaced an embedded error.
func (c *Conversation) Response() string {
	return c.Result.Text
}
