package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/socialspark/server/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.Post, error)
	FindDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	ClaimForPublish(ctx context.Context, id string) (bool, error)
	UpdateStatus(ctx context.Context, id, status string) error
	SetPublished(ctx context.Context, id string, publishedAt time.Time) error
	UpdateMedia(ctx context.Context, id string, mediaRefs []string) error
	Update(ctx context.Context, post *models.Post) error
	CheckByUserID(ctx context.Context, postID, userID string) (bool, error)
	Remove(ctx context.Context, id string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, caption, media, platform_target, account_id, scheduled_at, status, published_at, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var post models.Post
	var mediaJSON []byte
	err := row.Scan(&post.ID, &post.UserID, &post.Caption, &mediaJSON, &post.PlatformTarget,
		&post.AccountID, &post.ScheduledAt, &post.Status, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(mediaJSON) > 0 {
		if err := json.Unmarshal(mediaJSON, &post.Media); err != nil {
			return nil, err
		}
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, caption, media, platform_target, account_id, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	mediaJSON, err := json.Marshal(post.Media)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if tx != nil {
		_, err = tx.ExecContext(ctx, query, post.ID, post.UserID, post.Caption, mediaJSON,
			post.PlatformTarget, post.AccountID, post.ScheduledAt, post.Status)
	} else {
		_, err = r.db.ExecContext(ctx, query, post.ID, post.UserID, post.Caption, mediaJSON,
			post.PlatformTarget, post.AccountID, post.ScheduledAt, post.Status)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (r *postRepository) FindDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND scheduled_at <= $2`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// ClaimForPublish atomically moves a draft or scheduled post to the
// publishing state. A false result means another attempt already holds
// the post, or the post is not in a publishable state.
func (r *postRepository) ClaimForPublish(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status IN ($4, $5)
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), id,
		models.PostStatusDraft, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, id, status string) error {
	// published_at is cleared on every non-published status so the
	// published <=> published_at invariant holds.
	query := `
		UPDATE posts
		SET status = $1,
			published_at = NULL,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetPublished(ctx context.Context, id string, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			published_at = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, publishedAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateMedia(ctx context.Context, id string, mediaRefs []string) error {
	mediaJSON, err := json.Marshal(mediaRefs)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `
		UPDATE posts
		SET media = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err = r.db.ExecContext(ctx, query, mediaJSON, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	mediaJSON, err := json.Marshal(post.Media)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `
		UPDATE posts
		SET caption = $1,
			media = $2,
			platform_target = $3,
			account_id = $4,
			scheduled_at = $5,
			status = $6,
			published_at = $7,
			updated_at = $8
		WHERE id = $9
	`
	_, err = r.db.ExecContext(ctx, query, post.Caption, mediaJSON, post.PlatformTarget,
		post.AccountID, post.ScheduledAt, post.Status, post.PublishedAt, time.Now(), post.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID string) (bool, error) {
	query := `SELECT 1 FROM posts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
