package storage

import (
	"errors"
	"time"
)

// ToolPolicy controls tool execution. The bearer token lives here with
// the policy, apart from the LLM credentials, because it authorizes
// calls against the target API only.
type ToolPolicy struct {
	EnableTools bool   `json:"enableTools"`
	AutoExecute bool   `json:"autoExecute"`
	BearerToken string `json:"bearerToken,omitempty"`
}

// LoadToolPolicy returns the stored policy, or defaults when none has
// been saved or the blob fails to decode.
func (m *Mirror) LoadToolPolicy(defaults ToolPolicy) ToolPolicy {
	var policy ToolPolicy
	if err := m.GetJSON(KeyToolPolicy, &policy); err != nil {
		return defaults
	}
	return policy
}

func (m *Mirror) SaveToolPolicy(policy ToolPolicy) error {
	return m.PutJSON(KeyToolPolicy, policy)
}

// ConversationMeta records when the persisted conversation was started
// and last touched.
type ConversationMeta struct {
	SessionID string    `json:"sessionId"`
	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TouchConversation stamps the current session. The started time of an
// existing conversation is preserved.
func (m *Mirror) TouchConversation(sessionID string) error {
	now := time.Now().UTC()

	var meta ConversationMeta
	err := m.GetJSON(KeyConversationMeta, &meta)
	if err != nil || meta.StartedAt.IsZero() {
		if err != nil && !errors.Is(err, ErrNotFound) {
			// Corrupt blob, start over
			meta = ConversationMeta{}
		}
		meta.StartedAt = now
	}

	meta.SessionID = sessionID
	meta.UpdatedAt = now
	return m.PutJSON(KeyConversationMeta, meta)
}
