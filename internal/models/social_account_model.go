package models

import "time"

type SocialAccount struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	Platform       string    `db:"platform" json:"platform"`
	Username       string    `db:"username" json:"username"`
	PageID         string    `db:"page_id" json:"page_id"`
	IGUserID       string    `db:"ig_user_id" json:"ig_user_id"`
	AccessToken    string    `db:"access_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	IsConnected    bool      `db:"is_connected" json:"is_connected"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
