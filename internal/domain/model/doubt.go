package model

import "time"

type DoubtStatus string

const (
	DoubtStatusOpen     DoubtStatus = "open"
	DoubtStatusResolved DoubtStatus = "resolved"
)

func (s DoubtStatus) Valid() bool {
	return s == DoubtStatusOpen || s == DoubtStatusResolved
}

type Doubt struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Slug             string      `json:"slug"`
	Description      string      `json:"description,omitempty"`
	PostedBy         string      `json:"postedBy"`
	PostedByUsername string      `json:"postedByUsername,omitempty"` // For display
	Tags             []string    `json:"tags"`
	Status           DoubtStatus `json:"status"`
	ResolvedBy       *string     `json:"resolvedBy,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// DoubtDetail is a doubt together with all of its responses.
type DoubtDetail struct {
	Doubt     *Doubt     `json:"doubt"`
	Responses []Response `json:"responses"`
}
