package models

import "time"

// UploadedImage references the file a user picked for pest detection.
// Only metadata is kept; the bytes are never decoded or stored.
type UploadedImage struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	ReceivedAt  time.Time `json:"receivedAt"`
}
