package models

import (
	"database/sql"
	"time"
)

type Conversation struct {
	ID            string         `db:"id" json:"id"`
	UserID        sql.NullString `db:"user_id" json:"user_id"`
	SessionID     string         `db:"session_id" json:"session_id"`
	Status        string         `db:"status" json:"status"`
	LastMessageAt time.Time      `db:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

const (
	ConversationStatusActive = "active"
	ConversationStatusClosed = "closed"
)

type Message struct {
	ID             string         `db:"id" json:"id"`
	ConversationID string         `db:"conversation_id" json:"conversation_id"`
	Role           string         `db:"role" json:"role"`
	Content        string         `db:"content" json:"content"`
	AIProvider     sql.NullString `db:"ai_provider" json:"ai_provider"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type Feedback struct {
	ID        string    `db:"id" json:"id"`
	MessageID string    `db:"message_id" json:"message_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type KnowledgeEntry struct {
	ID          string    `db:"id" json:"id"`
	Category    string    `db:"category" json:"category"`
	Question    string    `db:"question" json:"question"`
	Answer      string    `db:"answer" json:"answer"`
	Keywords    []string  `db:"keywords" json:"keywords"`
	SuccessRate int       `db:"success_rate" json:"success_rate"`
	TimesUsed   int       `db:"times_used" json:"times_used"`
	Source      string    `db:"source" json:"source"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
