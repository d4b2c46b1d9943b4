package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/user/convo/internal/chat"
)

// Conversation is one stored conversation's metadata
type Conversation struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Character string `json:"character,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CreateConversation creates a new conversation and returns it
func (s *Store) CreateConversation(ctx context.Context, title, character string) (*Conversation, error) {
	id := uuid.NewString()
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO conversations (id, title, character) VALUES (?, ?, ?)",
		id, title, character,
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return s.GetConversation(ctx, id)
}

// GetConversation fetches one conversation by id
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	err := s.conn.QueryRowContext(ctx,
		"SELECT id, title, character, created_at, updated_at FROM conversations WHERE id = ?", id,
	).Scan(&c.ID, &c.Title, &c.Character, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return &c, nil
}

// ListConversations returns conversations, most recently updated first
func (s *Store) ListConversations(ctx context.Context, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx,
		"SELECT id, title, character, created_at, updated_at FROM conversations ORDER BY updated_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.Character, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AppendMessage appends one message to a conversation, preserving wire order
func (s *Store) AppendMessage(ctx context.Context, conversationID string, m chat.Message) error {
	toolCalls := ""
	if len(m.ToolCalls) > 0 {
		encoded, err := json.Marshal(m.ToolCalls)
		if err != nil {
			return fmt.Errorf("encoding tool calls: %w", err)
		}
		toolCalls = string(encoded)
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO messages
			(conversation_id, role, content, reasoning_content, tool_calls,
			 tool_call_id, model, prompt_tokens, completion_tokens, total_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conversationID, m.Role, m.Content, m.ReasoningContent, toolCalls,
		m.ToolCallID, m.Model, m.Usage.PromptTokens, m.Usage.CompletionTokens, m.Usage.TotalTokens,
	)
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		"UPDATE conversations SET updated_at = datetime('now') WHERE id = ?", conversationID)
	if err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}
	return nil
}

// LoadHistory returns a conversation's messages in append order
func (s *Store) LoadHistory(ctx context.Context, conversationID string) ([]chat.Message, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT role, content, reasoning_content, tool_calls, tool_call_id,
		       model, prompt_tokens, completion_tokens, total_tokens
		FROM messages WHERE conversation_id = ? ORDER BY id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var history []chat.Message
	for rows.Next() {
		var m chat.Message
		var toolCalls string
		if err := rows.Scan(&m.Role, &m.Content, &m.ReasoningContent, &toolCalls, &m.ToolCallID,
			&m.Model, &m.Usage.PromptTokens, &m.Usage.CompletionTokens, &m.Usage.TotalTokens); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if toolCalls != "" {
			if err := json.Unmarshal([]byte(toolCalls), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("decoding tool calls: %w", err)
			}
		}
		history = append(history, m)
	}
	return history, rows.Err()
}

// ConversationUsage sums token usage across a conversation's messages
func (s *Store) ConversationUsage(ctx context.Context, conversationID string) (chat.Usage, error) {
	var u chat.Usage
	err := s.conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(completion_tokens), 0),
		       COALESCE(SUM(total_tokens), 0)
		FROM messages WHERE conversation_id = ?`, conversationID,
	).Scan(&u.PromptTokens, &u.CompletionTokens, &u.TotalTokens)
	if err != nil {
		return chat.Usage{}, fmt.Errorf("summing usage: %w", err)
	}
	return u, nil
}
