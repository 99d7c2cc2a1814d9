package models

// StoredObject describes a user-uploaded document held in object storage.
type StoredObject struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
