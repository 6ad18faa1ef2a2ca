package models

import "time"

// Settings is a single-row table holding the workspace's media hosting
// configuration. Values here take precedence over the environment.
type Settings struct {
	ID                     int64     `db:"id" json:"id"`
	AppID                  string    `db:"app_id" json:"app_id"`
	AppSecret              string    `db:"app_secret" json:"-"`
	CloudinaryCloudName    string    `db:"cloudinary_cloud_name" json:"cloudinary_cloud_name"`
	CloudinaryUploadPreset string    `db:"cloudinary_upload_preset" json:"cloudinary_upload_preset"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}
