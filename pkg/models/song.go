package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Song status values. Generation is synchronous today so songs are inserted
// as completed; pending is reserved for future async generation.
const (
	SongStatusPending   = "pending"
	SongStatusCompleted = "completed"
)

// Section is one entry in a song's arrangement structure.
type Section struct {
	Section string `json:"section"`
	Start   int    `json:"start"`
	Length  int    `json:"length"`
}

// Arrangement is the structured payload the model returns for a generation
// or edit request. No semantic validation is applied to it.
type Arrangement struct {
	BPM               int       `json:"bpm"`
	DurationSeconds   int       `json:"duration_seconds"`
	Structure         []Section `json:"structure"`
	SoundsUsed        []string  `json:"sounds_used"`
	MelodyDescription string    `json:"melody_description"`
	ArrangementNotes  string    `json:"arrangement_notes,omitempty"`
}

// Song is one generated arrangement. Rows are immutable after insert: edits
// never touch a prior song, they append a new row with ParentSongID set.
// Versions are unique and gap-free within a project.
type Song struct {
	ID                uuid.UUID       `json:"id"`
	ProjectID         *uuid.UUID      `json:"project_id,omitempty"`
	Version           int             `json:"version"`
	Prompt            string          `json:"prompt"`
	EditPrompt        string          `json:"edit_prompt,omitempty"`
	EditTimeStart     *int            `json:"edit_time_start,omitempty"`
	EditTimeEnd       *int            `json:"edit_time_end,omitempty"`
	BPM               int             `json:"bpm,omitempty"`
	DurationSeconds   int             `json:"duration_seconds,omitempty"`
	Structure         []Section       `json:"structure,omitempty"`
	SoundsUsed        []string        `json:"sounds_used,omitempty"`
	MelodyDescription string          `json:"melody_description,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
	SongData          json.RawMessage `json:"song_data,omitempty"`
	Status            string          `json:"status"`
	ParentSongID      *uuid.UUID      `json:"parent_song_id,omitempty"`
}
