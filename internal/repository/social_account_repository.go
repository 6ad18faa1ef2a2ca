package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/socialspark/server/internal/models"
)

type SocialAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) error
	GetByID(ctx context.Context, id string) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.SocialAccount, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.SocialAccount, error)
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.SocialAccount, error)
	SetConnected(ctx context.Context, id string, connected bool) error
	CheckByUserID(ctx context.Context, accountID, userID string) (bool, error)
	Remove(ctx context.Context, id string) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const accountColumns = `id, user_id, platform, username, page_id, ig_user_id, access_token, token_expires_at, is_connected, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.Username, &sa.PageID, &sa.IGUserID,
		&sa.AccessToken, &sa.TokenExpiresAt, &sa.IsConnected, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

func (r *socialAccountRepository) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) error {
	query := `
		INSERT INTO social_accounts (id, user_id, platform, username, page_id, ig_user_id, access_token, token_expires_at, is_connected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, sa.ID, sa.UserID, sa.Platform, sa.Username,
			sa.PageID, sa.IGUserID, sa.AccessToken, sa.TokenExpiresAt, sa.IsConnected)
	} else {
		_, err = r.db.ExecContext(ctx, query, sa.ID, sa.UserID, sa.Platform, sa.Username,
			sa.PageID, sa.IGUserID, sa.AccessToken, sa.TokenExpiresAt, sa.IsConnected)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id string) (*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	sa, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}
	return accounts, nil
}

func (r *socialAccountRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE is_connected = TRUE AND token_expires_at < $1`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}
	return accounts, nil
}

func (r *socialAccountRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE is_connected = TRUE AND token_expires_at > $1 AND token_expires_at < $2`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}
	return accounts, nil
}

func (r *socialAccountRepository) SetConnected(ctx context.Context, id string, connected bool) error {
	query := `
		UPDATE social_accounts
		SET is_connected = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, connected, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) CheckByUserID(ctx context.Context, accountID, userID string) (bool, error) {
	query := `SELECT 1 FROM social_accounts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM social_accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
