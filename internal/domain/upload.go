package domain

// UploadType discriminates the two UploadRequest variants.
type UploadType string

const (
	UploadTypeFile UploadType = "file"
	UploadTypeLink UploadType = "link"
)

// Source tells the collaborator where the media comes from.
type Source string

const (
	SourceLocal       Source = "local"
	SourceYouTube     Source = "youtube"
	SourceVimeo       Source = "vimeo"
	SourceGoogleDrive Source = "google-drive"
	SourceUnknown     Source = "unknown"
)

// UploadRequest is either a file upload or an external link. Exactly one of
// Content or Link is populated, matching Type.
type UploadRequest struct {
	Type           UploadType     `validate:"required,oneof=file link"`
	FileName       string         `validate:"required_if=Type file,excluded_if=Type link"`
	Content        []byte         `validate:"required_if=Type file,excluded_if=Type link"`
	Link           string         `validate:"required_if=Type link,excluded_if=Type file"`
	Source         Source         `validate:"required,oneof=local youtube vimeo google-drive unknown"`
	TargetLanguage string         `validate:"omitempty,language_code"`
	VoiceSettings  map[string]any `validate:"-"`
}

// NewFileUpload builds the file variant of an UploadRequest.
func NewFileUpload(fileName string, content []byte) *UploadRequest {
	return &UploadRequest{
		Type:     UploadTypeFile,
		FileName: fileName,
		Content:  content,
		Source:   SourceLocal,
	}
}

// NewLinkUpload builds the link variant of an UploadRequest. An empty source
// becomes SourceUnknown.
func NewLinkUpload(link string, source Source) *UploadRequest {
	if source == "" {
		source = SourceUnknown
	}
	return &UploadRequest{
		Type:   UploadTypeLink,
		Link:   link,
		Source: source,
	}
}
