package media

import "io"

// Resource types
const (
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceRaw   = "raw"
)

// Asset is a file stored on the media storage.
type Asset struct {
	URL          string `json:"url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	ContentType  string `json:"content_type"`
	Bytes        int64  `json:"bytes"`
}

// File is an uploaded file waiting to be stored.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}
