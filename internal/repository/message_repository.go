package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/socialspark/server/internal/models"
)

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
	ListRecent(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
	Count(ctx context.Context) (int, error)
}

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

const messageColumns = `id, conversation_id, role, content, ai_provider, created_at`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.AIProvider, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageRepository) Create(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, role, content, ai_provider)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.ConversationID, m.Role, m.Content, m.AIProvider)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	m, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return m, nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// ListRecent returns the newest messages first; callers reverse the
// slice when they need chronological order.
func (r *messageRepository) ListRecent(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (r *messageRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}
