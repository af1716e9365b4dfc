package models

// ProcessedPhoto holds the three encoded variants derived from one upload.
// Every field is a self-contained data URL.
type ProcessedPhoto struct {
	Original  string `json:"original"`
	Circular  string `json:"circular"`
	Thumbnail string `json:"thumbnail"`
}
