// Package prompts builds the text prompts sent to the generation API for
// sample analysis, song generation, and song edits.
package prompts

import (
	"fmt"
	"strings"

	"github.com/museme-app/museme-engine/pkg/models"
)

// BuildAnalysisPrompt creates the prompt asking the model to describe one
// audio sample and return a categorized JSON payload.
func BuildAnalysisPrompt(filename, fileType string) string {
	return fmt.Sprintf(`Analyze this audio file and provide a JSON response with the following structure:
{
  "name": %q,
  "description": "Detailed description of the sound",
  "category": "snare|kick|hihat|percussion|melody|bass|fx|other",
  "tags": ["tag1", "tag2", "tag3"]
}

File: %s
Type: %s

Provide ONLY the JSON response, no additional text.`, filename, filename, fileType)
}

// BuildGenerationPrompt creates the prompt asking the model for a complete
// song arrangement over the user's analyzed sample library.
func BuildGenerationPrompt(userPrompt string, samples []models.SampleInfo) string {
	var b strings.Builder

	b.WriteString("You are a music production AI. Generate a complete song arrangement based on the user's request.\n\n")
	fmt.Fprintf(&b, "User Request: %s\n\n", userPrompt)
	b.WriteString("Available Samples:\n")
	b.WriteString(formatSampleList(samples))
	b.WriteString(`
Generate a JSON response with the following structure:
{
  "bpm": 90,
  "duration_seconds": 180,
  "structure": [
    {"section": "intro", "start": 0, "length": 8},
    {"section": "verse", "start": 8, "length": 32},
    {"section": "hook", "start": 40, "length": 16},
    {"section": "verse", "start": 56, "length": 32},
    {"section": "hook", "start": 88, "length": 16},
    {"section": "bridge", "start": 104, "length": 16},
    {"section": "outro", "start": 120, "length": 8}
  ],
  "sounds_used": ["snare_04.wav", "kick_02.wav", "hihat_roll.wav"],
  "melody_description": "Soft keys in minor scale with airy pads",
  "arrangement_notes": "Detailed notes about the arrangement"
}

The song should be approximately 3 minutes (180 seconds). Use the available samples creatively. Provide ONLY the JSON response, no additional text.`)

	return b.String()
}

// BuildEditPrompt creates the prompt asking the model to revise an existing
// arrangement. When both timeStart and timeEnd are given, the edit is scoped
// to that window and the model is told to keep the rest unchanged.
func BuildEditPrompt(editPrompt string, existing *models.Song, samples []models.SampleInfo, timeStart, timeEnd *int) string {
	var b strings.Builder

	b.WriteString("You are a music production AI. Edit an existing song arrangement based on the user's request.\n\n")
	b.WriteString("Existing Song Details:\n")
	fmt.Fprintf(&b, "- BPM: %s\n", intOrUnknown(existing.BPM))
	fmt.Fprintf(&b, "- Duration: %s seconds\n", intOrUnknown(existing.DurationSeconds))
	fmt.Fprintf(&b, "- Current Structure: %s\n", formatStructure(existing.Structure))
	fmt.Fprintf(&b, "- Current Sounds Used: %s\n", formatSounds(existing.SoundsUsed))
	fmt.Fprintf(&b, "- Current Melody: %s\n", stringOr(existing.MelodyDescription, "No melody description"))

	scoped := timeStart != nil && timeEnd != nil
	if scoped {
		fmt.Fprintf(&b, "\nIMPORTANT: The user wants to edit ONLY the time frame from %d seconds to %d seconds. Keep the rest of the song unchanged.\n", *timeStart, *timeEnd)
	}

	fmt.Fprintf(&b, "\nUser Edit Request: %s\n\n", editPrompt)
	b.WriteString("Available Samples:\n")
	b.WriteString(formatSampleList(samples))
	b.WriteString("\n")

	if scoped {
		fmt.Fprintf(&b, "Generate a JSON response that modifies ONLY the section from %ds to %ds, keeping the rest of the song structure intact.\n", *timeStart, *timeEnd)
	} else {
		b.WriteString("Generate a complete updated JSON response with the following structure:\n")
	}

	bpm := existing.BPM
	if bpm == 0 {
		bpm = 90
	}
	duration := existing.DurationSeconds
	if duration == 0 {
		duration = 180
	}
	fmt.Fprintf(&b, `{
  "bpm": %d,
  "duration_seconds": %d,
  "structure": [
    {"section": "intro", "start": 0, "length": 8},
    {"section": "verse", "start": 8, "length": 32},
    {"section": "hook", "start": 40, "length": 16},
    {"section": "verse", "start": 56, "length": 32},
    {"section": "hook", "start": 88, "length": 16},
    {"section": "bridge", "start": 104, "length": 16},
    {"section": "outro", "start": 120, "length": 8}
  ],
  "sounds_used": ["snare_04.wav", "kick_02.wav", "hihat_roll.wav"],
  "melody_description": "Updated melody description",
  "arrangement_notes": "Notes about what was changed"
}

`, bpm, duration)

	if scoped {
		fmt.Fprintf(&b, "Focus on modifying sections that overlap with the %ds-%ds time frame.\n", *timeStart, *timeEnd)
	} else {
		b.WriteString("Update the entire song based on the user's request.\n")
	}
	b.WriteString("Provide ONLY the JSON response, no additional text.")

	return b.String()
}

// formatSampleList renders one inventory line per analyzed sample.
func formatSampleList(samples []models.SampleInfo) string {
	if len(samples) == 0 {
		return "(no analyzed samples available)\n"
	}

	var b strings.Builder
	for _, s := range samples {
		fmt.Fprintf(&b, "- %s (%s): %s [%s]\n",
			s.Filename, s.Category, s.Description, strings.Join(s.Tags, ", "))
	}
	return b.String()
}

func formatStructure(sections []models.Section) string {
	if len(sections) == 0 {
		return "No structure defined"
	}

	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = fmt.Sprintf("%s (start %ds, length %ds)", s.Section, s.Start, s.Length)
	}
	return strings.Join(parts, ", ")
}

func formatSounds(sounds []string) string {
	if len(sounds) == 0 {
		return "No sounds defined"
	}
	return strings.Join(sounds, ", ")
}

func intOrUnknown(v int) string {
	if v == 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%d", v)
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
