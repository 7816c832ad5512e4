package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Prompt is a chat prompt with optional system instructions.
type Prompt struct {
	System   string    `json:"system,omitempty"`
	Messages []Message `json:"messages"`
}

// TextPrompt is a prompt made of a single user message.
func TextPrompt(text string) Prompt {
	return Prompt{Messages: []Message{{Role: RoleUser, Content: text}}}
}

// InstructionPrompt is a user instruction preceded by system instructions.
func InstructionPrompt(system, instruction string) Prompt {
	return Prompt{System: system, Messages: []Message{{Role: RoleUser, Content: instruction}}}
}

// ChatPrompt builds a prompt from a conversation.
func ChatPrompt(system string, messages ...Message) Prompt {
	return Prompt{System: system, Messages: messages}
}

// User and Assistant are shorthands for chat turns.
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

var ErrEmptyPrompt = errors.New("prompt has no messages")

// Validate checks that the prompt has messages, that every role is known and
// that the conversation ends with a user turn.
func (p Prompt) Validate() error {
	if len(p.Messages) == 0 {
		return ErrEmptyPrompt
	}
	for i, m := range p.Messages {
		switch m.Role {
		case RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	if last := p.Messages[len(p.Messages)-1]; last.Role != RoleUser {
		return fmt.Errorf("prompt must end with a user message, got %q", last.Role)
	}
	return nil
}

// String renders the prompt for logs.
func (p Prompt) String() string {
	var sb strings.Builder
	if p.System != "" {
		sb.WriteString("system: ")
		sb.WriteString(p.System)
		sb.WriteByte('\n')
	}
	for _, m := range p.Messages {
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteByte('\n')
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
