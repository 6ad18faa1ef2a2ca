package transfer

type PostCreation struct {
	Caption        string   `json:"caption"`
	Media          []string `json:"media"`
	PlatformTarget string   `json:"platform_target"`
	AccountID      string   `json:"account_id"`
	ScheduledAt    string   `json:"scheduled_at"`
	Status         string   `json:"status"`
}

type PostUpdate struct {
	Caption        *string  `json:"caption"`
	Media          []string `json:"media"`
	PlatformTarget *string  `json:"platform_target"`
	AccountID      *string  `json:"account_id"`
	ScheduledAt    *string  `json:"scheduled_at"`
	Status         *string  `json:"status"`
}

// FacebookPublishResult is the typed outcome of a Facebook publish.
type FacebookPublishResult struct {
	PostID string `json:"post_id"`
}

// InstagramPublishResult is the typed outcome of an Instagram publish.
type InstagramPublishResult struct {
	MediaID string `json:"media_id"`
}
