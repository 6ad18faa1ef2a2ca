package models

import (
	"database/sql"
	"time"
)

type Post struct {
	ID             string       `db:"id" json:"id"`
	UserID         string       `db:"user_id" json:"user_id"`
	Caption        string       `db:"caption" json:"caption"`
	Media          []string     `db:"media" json:"media"`
	PlatformTarget string       `db:"platform_target" json:"platform_target"`
	AccountID      string       `db:"account_id" json:"account_id"`
	ScheduledAt    time.Time    `db:"scheduled_at" json:"scheduled_at"`
	Status         string       `db:"status" json:"status"`
	PublishedAt    sql.NullTime `db:"published_at" json:"published_at"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	// PostStatusPublishing marks a claimed post while a publish attempt
	// is in flight, so a second attempt cannot claim the same post.
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const (
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
	PlatformBoth      = "both"
)
