package models

import (
	"time"

	"github.com/google/uuid"
)

// Project groups the version lineage of one generated song. CurrentVersion
// starts at 1 and is bumped by the version ledger on every accepted edit;
// it always equals the highest song version in the project.
type Project struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CurrentVersion int        `json:"current_version"`
	BaseSongID     *uuid.UUID `json:"base_song_id,omitempty"`
}
