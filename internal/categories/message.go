package categories

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Phase is the stage of a category conversation.
type Phase string

// Conversation phases. PhaseFinalized is set by clients once they accept a
// category set; ResolvePhase never returns it.
const (
	PhaseInitial    Phase = "initial"
	PhaseRefinement Phase = "refinement"
	PhaseFinalized  Phase = "finalized"
)

// ResolvePhase returns PhaseInitial when there is neither a message nor any
// history, and PhaseRefinement otherwise.
func ResolvePhase(message string, history []Message) Phase {
	if strings.TrimSpace(message) == "" && len(history) == 0 {
		return PhaseInitial
	}
	return PhaseRefinement
}

// Category is one suggested event category.
type Category struct {
	Name        string `json:"name"`
	ColorID     string `json:"colorId"`
	Description string `json:"description"`
}

// Role identifies the author of a conversation message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ErrInvalidMessage is returned when a transcript entry cannot be decoded.
var ErrInvalidMessage = errors.New("invalid conversation message")

// Message is one entry of a category conversation. The concrete types are
// UserMessage, AssistantMessage and SystemMessage.
type Message interface {
	Role() Role
	Text() string
	isMessage()
}

// UserMessage is feedback typed by the user.
type UserMessage struct {
	Content string
}

// AssistantMessage is a previous model turn, optionally carrying the
// categories it suggested.
type AssistantMessage struct {
	Content    string
	Categories []Category
}

// SystemMessage is an instruction injected by the client.
type SystemMessage struct {
	Content string
}

func (UserMessage) Role() Role      { return RoleUser }
func (AssistantMessage) Role() Role { return RoleAssistant }
func (SystemMessage) Role() Role    { return RoleSystem }

func (m UserMessage) Text() string      { return m.Content }
func (m AssistantMessage) Text() string { return m.Content }
func (m SystemMessage) Text() string    { return m.Content }

func (UserMessage) isMessage()      {}
func (AssistantMessage) isMessage() {}
func (SystemMessage) isMessage()    {}

type wireMessage struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Categories []Category `json:"categories,omitempty"`
}

func (m UserMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{Role: RoleUser, Content: m.Content})
}

func (m AssistantMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{Role: RoleAssistant, Content: m.Content, Categories: m.Categories})
}

func (m SystemMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{Role: RoleSystem, Content: m.Content})
}

// History is a transcript that decodes from the JSON array form
// [{"role": ..., "content": ..., "categories": [...]}].
type History []Message

// UnmarshalJSON decodes a transcript, rejecting unknown roles and
// categories attached to anything but an assistant turn.
func (h *History) UnmarshalJSON(data []byte) error {
	var raw []wireMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	out := make(History, 0, len(raw))
	for i, w := range raw {
		msg, err := w.message()
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		out = append(out, msg)
	}
	*h = out
	return nil
}

func (w wireMessage) message() (Message, error) {
	if w.Role != RoleAssistant && len(w.Categories) > 0 {
		return nil, fmt.Errorf("%w: only assistant messages may carry categories", ErrInvalidMessage)
	}
	switch w.Role {
	case RoleUser:
		return UserMessage{Content: w.Content}, nil
	case RoleAssistant:
		return AssistantMessage{Content: w.Content, Categories: w.Categories}, nil
	case RoleSystem:
		return SystemMessage{Content: w.Content}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, w.Role)
	}
}
