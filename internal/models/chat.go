package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// BirthProfile is the four-field Kundli intake a consultation is
// generated from. All fields are required before a session can start.
type BirthProfile struct {
	Name         string `json:"name"`
	DateOfBirth  string `json:"dateOfBirth"`
	TimeOfBirth  string `json:"timeOfBirth"`
	PlaceOfBirth string `json:"placeOfBirth"`
}

// Complete reports whether every intake field is filled in.
func (p BirthProfile) Complete() bool {
	return p.Name != "" && p.DateOfBirth != "" && p.TimeOfBirth != "" && p.PlaceOfBirth != ""
}

// ChatMessage is one turn of a consultation. SentAt serializes as
// RFC 3339 so saved transcripts round-trip through the store.
type ChatMessage struct {
	ID     string    `json:"id"`
	Role   string    `json:"role"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

// ChatRecord is a saved consultation transcript. Saving with an
// existing ID replaces that record in place; a new ID is prepended to
// the collection. MessageCount always equals len(Messages).
type ChatRecord struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	SavedAt      time.Time     `json:"savedAt"`
	BirthProfile BirthProfile  `json:"birthProfile"`
	MessageCount int           `json:"messageCount"`
	Messages     []ChatMessage `json:"messages"`
}
