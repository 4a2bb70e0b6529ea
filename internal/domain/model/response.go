package model

import "time"

type Attachment struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type Response struct {
	ID             string       `json:"id"`
	DoubtID        string       `json:"doubt"`
	AuthorID       string       `json:"author"`
	AuthorUsername string       `json:"authorUsername,omitempty"` // For display
	AuthorRole     string       `json:"authorRole,omitempty"`     // For display
	Content        string       `json:"content"`
	Attachments    []Attachment `json:"attachments"`
	IsByMentor     bool         `json:"isByMentor"`
	Likes          int          `json:"likes"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      *time.Time   `json:"updatedAt,omitempty"` // Set only by edits
}
