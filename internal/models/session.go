package models

import "time"

// ChatSession links a stored document to its accumulating conversation
// history. Version counts appends and guards concurrent updates.
type ChatSession struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"file_path"`
	Messages  []Message `json:"messages"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
