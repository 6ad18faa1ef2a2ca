package transfer

// UploadOptions carries per-upload host settings. Workspace settings
// override the environment defaults for cloud name and preset.
type UploadOptions struct {
	CloudName    string
	UploadPreset string
}

type UploadResult struct {
	URL          string  `json:"url"`
	PublicID     string  `json:"public_id"`
	ResourceType string  `json:"resource_type"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
}
