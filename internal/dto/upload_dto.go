package dto

// UploadResponse describes a stored file. Clients pass the descriptor back as
// an assignment attachment or submission file reference.
type UploadResponse struct {
	FileName  string `json:"name"`
	URL       string `json:"url"`
	MimeType  string `json:"type"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}
