// Package chat defines the conversation transcript model.
package chat

import "time"

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is a live conversation bound to a single store. Transcripts live
// in memory only and disappear when the session closes.
type Session struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	Transcript []Message `json:"transcript"`
	CreatedAt  time.Time `json:"created_at"`
}
