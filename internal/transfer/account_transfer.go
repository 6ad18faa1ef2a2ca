package transfer

import "github.com/golang-jwt/jwt/v5"

type AccountCreation struct {
	Platform       string `json:"platform"`
	Username       string `json:"username"`
	PageID         string `json:"page_id"`
	IGUserID       string `json:"ig_user_id"`
	AccessToken    string `json:"access_token"`
	TokenExpiresAt string `json:"token_expires_at"`
}

type SettingsUpdate struct {
	AppID                  string `json:"app_id"`
	AppSecret              string `json:"app_secret"`
	CloudinaryCloudName    string `json:"cloudinary_cloud_name"`
	CloudinaryUploadPreset string `json:"cloudinary_upload_preset"`
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
