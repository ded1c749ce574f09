package models

import (
	"time"

	"github.com/google/uuid"
)

// Sample categories assigned by analysis.
const (
	CategorySnare      = "snare"
	CategoryKick       = "kick"
	CategoryHiHat      = "hihat"
	CategoryPercussion = "percussion"
	CategoryMelody     = "melody"
	CategoryBass       = "bass"
	CategoryFX         = "fx"
	CategoryOther      = "other"
)

// Asset is an uploaded audio sample. Rows are created by the upload pipeline
// (external to this service) and enriched exactly once by analysis unless
// re-analysis is explicitly requested.
type Asset struct {
	ID               uuid.UUID `json:"id"`
	Filename         string    `json:"filename"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	FilePath         string    `json:"file_path"`
	UploadedAt       time.Time `json:"uploaded_at"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	Analyzed         bool      `json:"analyzed"`
	AnalysisPrompt   string    `json:"analysis_prompt,omitempty"`
	AnalysisResponse string    `json:"analysis_response,omitempty"`

	// PlaybackURL is a presigned object-store URL, populated on read when
	// object storage is configured. Not persisted.
	PlaybackURL string `json:"playback_url,omitempty"`
}

// SampleInfo is the slice of an analyzed asset that goes into generation
// prompts.
type SampleInfo struct {
	Filename    string   `json:"filename"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// AnalysisResult is the structured payload extracted from a sample-analysis
// response.
type AnalysisResult struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}
