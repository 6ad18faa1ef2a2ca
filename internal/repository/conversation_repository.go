package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/socialspark/server/internal/models"
)

type ConversationRepository interface {
	Create(ctx context.Context, c *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	FindActive(ctx context.Context, userID, sessionID string) (*models.Conversation, error)
	Touch(ctx context.Context, id string, lastMessageAt time.Time) error
	Count(ctx context.Context) (int, error)
}

type conversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

const conversationColumns = `id, user_id, session_id, status, last_message_at, created_at`

func (r *conversationRepository) Create(ctx context.Context, c *models.Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, session_id, status, last_message_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.UserID, c.SessionID, c.Status, c.LastMessageAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var c models.Conversation
	err := row.Scan(&c.ID, &c.UserID, &c.SessionID, &c.Status, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &c, nil
}

// FindActive returns the most recent active conversation for either
// the user or the anonymous session.
func (r *conversationRepository) FindActive(ctx context.Context, userID, sessionID string) (*models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE status = $1 AND (($2 <> '' AND user_id = $2) OR session_id = $3)
		ORDER BY last_message_at DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, models.ConversationStatusActive, userID, sessionID)

	var c models.Conversation
	err := row.Scan(&c.ID, &c.UserID, &c.SessionID, &c.Status, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &c, nil
}

func (r *conversationRepository) Touch(ctx context.Context, id string, lastMessageAt time.Time) error {
	query := `UPDATE conversations SET last_message_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, lastMessageAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *conversationRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}
