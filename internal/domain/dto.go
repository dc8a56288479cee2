package domain

// SubmitResponse is returned by POST /voice/voice-clone.
type SubmitResponse struct {
	Success          bool           `json:"success"`
	Message          string         `json:"message"`
	TaskID           string         `json:"task_id,omitempty"`
	Status           string         `json:"status"`
	FilePath         string         `json:"file_path,omitempty"`
	OriginalFilename string         `json:"original_filename,omitempty"`
	ProcessingTime   *float64       `json:"processing_time,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        *Timestamp     `json:"created_at,omitempty"`
}

// CancelResponse is returned by DELETE /voice/task/{task_id}.
type CancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SupportedFormats is returned by GET /voice/supported-formats.
type SupportedFormats struct {
	AudioFormats       []string `json:"audio_formats"`
	VideoFormats       []string `json:"video_formats"`
	MaxFileSize        string   `json:"max_file_size"`
	SupportedLanguages []string `json:"supported_languages"`
}

// LinkValidation is the outcome of checking a user supplied link.
type LinkValidation struct {
	IsValid  bool   `json:"isValid"`
	Platform Source `json:"platform,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ValidateLinkRequest is the gateway body for POST /api/links/validate.
type ValidateLinkRequest struct {
	URL string `json:"url" validate:"max=2048"`
}
