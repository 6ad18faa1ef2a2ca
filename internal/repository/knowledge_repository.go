package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/socialspark/server/internal/models"
)

type KnowledgeRepository interface {
	Create(ctx context.Context, e *models.KnowledgeEntry) error
	FindSimilar(ctx context.Context, questionPrefix string) (*models.KnowledgeEntry, error)
	RecordUse(ctx context.Context, id string, successRate int) error
	Count(ctx context.Context) (int, error)
}

type knowledgeRepository struct {
	db *sql.DB
}

func NewKnowledgeRepository(db *sql.DB) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

const knowledgeColumns = `id, category, question, answer, keywords, success_rate, times_used, source, created_at`

func scanKnowledgeEntry(row interface{ Scan(...any) error }) (*models.KnowledgeEntry, error) {
	var e models.KnowledgeEntry
	var keywordsJSON []byte
	err := row.Scan(&e.ID, &e.Category, &e.Question, &e.Answer, &keywordsJSON,
		&e.SuccessRate, &e.TimesUsed, &e.Source, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(keywordsJSON) > 0 {
		if err := json.Unmarshal(keywordsJSON, &e.Keywords); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func (r *knowledgeRepository) Create(ctx context.Context, e *models.KnowledgeEntry) error {
	keywordsJSON, err := json.Marshal(e.Keywords)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `
		INSERT INTO knowledge_base (id, category, question, answer, keywords, success_rate, times_used, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query, e.ID, e.Category, e.Question, e.Answer, keywordsJSON,
		e.SuccessRate, e.TimesUsed, e.Source)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// FindSimilar matches entries whose question contains the given prefix.
func (r *knowledgeRepository) FindSimilar(ctx context.Context, questionPrefix string) (*models.KnowledgeEntry, error) {
	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_base WHERE question LIKE '%' || $1 || '%' LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, questionPrefix)

	e, err := scanKnowledgeEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return e, nil
}

func (r *knowledgeRepository) RecordUse(ctx context.Context, id string, successRate int) error {
	query := `
		UPDATE knowledge_base
		SET times_used = times_used + 1,
			success_rate = $1
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, successRate, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *knowledgeRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_base`).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}
