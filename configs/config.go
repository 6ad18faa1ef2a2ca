package config

import (
	"os"
	"sort"
)

type Cloudinary struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// AIProvider is resolved once at startup; services never read
// provider enablement from the environment at call time.
type AIProvider struct {
	Name     string
	APIKey   string
	Priority int
	Enabled  bool
}

type Config struct {
	FacebookAppID       string
	FacebookAppSecret   string
	FacebookRedirectURI string
	PostgresURI         string
	RedisURI            string
	FrontendURL         string
	MediaStorage        string // "cloudinary" or "r2"
	Cloudinary          Cloudinary
	R2                  R2
	OpenAIKey           string
	GeminiKey           string
	ClaudeKey           string
	PerplexityKey       string
	SecretKey           string
	CookieName          string
	Port                string
}

func LoadConfig() *Config {
	return &Config{
		FacebookAppID:       getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret:   getEnv("FACEBOOK_APP_SECRET", ""),
		FacebookRedirectURI: getEnv("FACEBOOK_REDIRECT_URI", ""),
		PostgresURI:         getEnv("POSTGRES_URI", ""),
		RedisURI:            getEnv("REDIS_URI", ""),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		MediaStorage:        getEnv("MEDIA_STORAGE", "cloudinary"),
		Cloudinary: Cloudinary{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		GeminiKey:     getEnv("GEMINI_API_KEY", ""),
		ClaudeKey:     getEnv("CLAUDE_API_KEY", ""),
		PerplexityKey: getEnv("API_PERPLEXITY", ""),
		SecretKey:     getEnv("SECRET_KEY", ""),
		CookieName:    getEnv("COOKIE_NAME", "socialspark_session"),
		Port:          getEnv("PORT", "3000"),
	}
}

// AIProviders returns the configured chat providers in priority order.
// A provider is enabled only when its API key is present.
func (c *Config) AIProviders() []AIProvider {
	providers := []AIProvider{
		{Name: "openai", APIKey: c.OpenAIKey, Priority: 1, Enabled: c.OpenAIKey != ""},
		{Name: "gemini", APIKey: c.GeminiKey, Priority: 2, Enabled: c.GeminiKey != ""},
		{Name: "claude", APIKey: c.ClaudeKey, Priority: 3, Enabled: c.ClaudeKey != ""},
		{Name: "perplexity", APIKey: c.PerplexityKey, Priority: 4, Enabled: c.PerplexityKey != ""},
	}
	sort.SliceStable(providers, func(i, j int) bool {
		return providers[i].Priority < providers[j].Priority
	})
	return providers
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
