package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/apperrors"
	"github.com/museme-app/museme-engine/pkg/models"
)

const arrangementResponse = `Here is your arrangement:
{
  "bpm": 140,
  "duration_seconds": 180,
  "structure": [{"section": "intro", "start": 0, "length": 8}],
  "sounds_used": ["kick_02.wav"],
  "melody_description": "Dark keys",
  "arrangement_notes": "Sparse intro"
}
Enjoy!`

func newTestSongService(songs *fakeSongRepo, projects *fakeProjectRepo, assets *fakeAssetRepo, dispatcher *fakeDispatcher) SongService {
	ledger := NewVersionLedger(&fakeTxRunner{}, songs, projects, zap.NewNop())
	return NewSongService(songs, projects, assets, dispatcher, ledger, nil, 3, zap.NewNop())
}

func TestGenerateStoresSong(t *testing.T) {
	songs := newFakeSongRepo()
	assets := newFakeAssetRepo()
	assets.samples = []models.SampleInfo{
		{Filename: "kick_02.wav", Description: "Punchy kick", Category: "kick", Tags: []string{"808"}},
	}
	dispatcher := &fakeDispatcher{response: arrangementResponse}
	svc := newTestSongService(songs, newFakeProjectRepo(), assets, dispatcher)

	result, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "dark trap beat"})
	require.NoError(t, err)

	assert.Nil(t, result.Project)
	assert.Equal(t, 140, result.Song.BPM)
	assert.Equal(t, 180, result.Song.DurationSeconds)
	assert.Equal(t, []string{"kick_02.wav"}, result.Song.SoundsUsed)
	assert.Equal(t, "dark trap beat", result.Song.Prompt)
	assert.Equal(t, 1, result.Song.Version)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(result.Song.SongData, &stored))
	assert.Equal(t, "Sparse intro", stored["arrangement_notes"])

	// The sample inventory must reach the prompt.
	require.Len(t, dispatcher.prompts, 1)
	assert.Contains(t, dispatcher.prompts[0], "kick_02.wav (kick): Punchy kick [808]")
	assert.Contains(t, dispatcher.prompts[0], "User Request: dark trap beat")
}

func TestGenerateCreatesProject(t *testing.T) {
	songs := newFakeSongRepo()
	projects := newFakeProjectRepo()
	dispatcher := &fakeDispatcher{response: arrangementResponse}
	svc := newTestSongService(songs, projects, newFakeAssetRepo(), dispatcher)

	result, err := svc.Generate(context.Background(), GenerateRequest{
		Prompt:        "lofi beat",
		CreateProject: true,
		ProjectName:   "Chill Project",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Project)
	assert.Equal(t, "Chill Project", result.Project.Name)
	require.NotNil(t, result.Song.ProjectID)
	assert.Equal(t, result.Project.ID, *result.Song.ProjectID)
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	dispatcher := &fakeDispatcher{response: arrangementResponse}
	svc := newTestSongService(newFakeSongRepo(), newFakeProjectRepo(), newFakeAssetRepo(), dispatcher)

	_, err := svc.Generate(context.Background(), GenerateRequest{})
	assert.Error(t, err)
	assert.Zero(t, dispatcher.calls)
}

func TestGenerateMalformedResponse(t *testing.T) {
	dispatcher := &fakeDispatcher{response: "sorry, I cannot do that"}
	songs := newFakeSongRepo()
	svc := newTestSongService(songs, newFakeProjectRepo(), newFakeAssetRepo(), dispatcher)

	_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "beat"})
	assert.ErrorIs(t, err, apperrors.ErrNoStructuredPayload)
	assert.Empty(t, songs.created, "nothing may be stored on extraction failure")
}

func TestEditProducesNextVersion(t *testing.T) {
	songs := newFakeSongRepo()
	projects := newFakeProjectRepo()
	projectID := uuid.New()
	projects.projects[projectID] = &models.Project{ID: projectID, CurrentVersion: 2}

	base := &models.Song{
		ID:        uuid.New(),
		ProjectID: &projectID,
		Version:   2,
		Prompt:    "original prompt",
		BPM:       120,
	}
	require.NoError(t, songs.Create(context.Background(), base))
	songs.created = nil

	dispatcher := &fakeDispatcher{response: arrangementResponse}
	svc := newTestSongService(songs, projects, newFakeAssetRepo(), dispatcher)

	start, end := 30, 60
	song, err := svc.Edit(context.Background(), projectID, EditRequest{
		Prompt:    "add more bass",
		TimeStart: &start,
		TimeEnd:   &end,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, song.Version)
	assert.Equal(t, "original prompt", song.Prompt)
	assert.Equal(t, "add more bass", song.EditPrompt)
	require.NotNil(t, song.ParentSongID)
	assert.Equal(t, base.ID, *song.ParentSongID)
	assert.Equal(t, []int{3}, projects.bumps)

	require.Len(t, dispatcher.prompts, 1)
	assert.Contains(t, dispatcher.prompts[0], "from 30 seconds to 60 seconds")
	assert.Contains(t, dispatcher.prompts[0], "- BPM: 120")
}

func TestEditConcurrentWithAnotherEdit(t *testing.T) {
	songs := newFakeSongRepo()
	projects := newFakeProjectRepo()
	projectID := uuid.New()
	projects.projects[projectID] = &models.Project{ID: projectID, CurrentVersion: 1}

	base := &models.Song{ID: uuid.New(), ProjectID: &projectID, Version: 1, Prompt: "original"}
	songs.songs[base.ID] = base

	dispatcher := &fakeDispatcher{response: arrangementResponse}
	svc := newTestSongService(songs, projects, newFakeAssetRepo(), dispatcher)

	// A rival edit lands while the first edit is waiting on generation.
	rivalDispatcher := &fakeDispatcher{response: arrangementResponse}
	rivalSvc := newTestSongService(songs, projects, newFakeAssetRepo(), rivalDispatcher)
	dispatcher.onDispatch = func() {
		_, err := rivalSvc.Edit(context.Background(), projectID, EditRequest{Prompt: "rival edit"})
		require.NoError(t, err)
	}

	song, err := svc.Edit(context.Background(), projectID, EditRequest{Prompt: "slow edit"})
	require.NoError(t, err)

	// The rival stored version 2. The slow edit must become version 3 and
	// parent onto the rival's song, not the version it read before dispatch.
	require.Len(t, songs.created, 2)
	rivalSong := songs.created[0]
	assert.Equal(t, 2, rivalSong.Version)
	assert.Equal(t, 3, song.Version)
	require.NotNil(t, song.ParentSongID)
	assert.Equal(t, rivalSong.ID, *song.ParentSongID)
}

func TestEditInvalidTimeRange(t *testing.T) {
	dispatcher := &fakeDispatcher{response: arrangementResponse}
	svc := newTestSongService(newFakeSongRepo(), newFakeProjectRepo(), newFakeAssetRepo(), dispatcher)

	cases := []struct {
		name       string
		start, end *int
	}{
		{"start equals end", intPtr(30), intPtr(30)},
		{"start after end", intPtr(60), intPtr(30)},
		{"negative start", intPtr(-1), intPtr(30)},
		{"only start", intPtr(30), nil},
		{"only end", nil, intPtr(30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Edit(context.Background(), uuid.New(), EditRequest{
				Prompt:    "edit",
				TimeStart: tc.start,
				TimeEnd:   tc.end,
			})
			assert.ErrorIs(t, err, apperrors.ErrInvalidTimeRange)
		})
	}
	assert.Zero(t, dispatcher.calls, "validation must happen before dispatch")
}

func TestEditProjectNotFound(t *testing.T) {
	dispatcher := &fakeDispatcher{response: arrangementResponse}
	svc := newTestSongService(newFakeSongRepo(), newFakeProjectRepo(), newFakeAssetRepo(), dispatcher)

	_, err := svc.Edit(context.Background(), uuid.New(), EditRequest{Prompt: "edit"})
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
	assert.Zero(t, dispatcher.calls)
}

func TestListProjectSongsUnknownProject(t *testing.T) {
	svc := newTestSongService(newFakeSongRepo(), newFakeProjectRepo(), newFakeAssetRepo(), &fakeDispatcher{})

	_, err := svc.ListProjectSongs(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
}

func intPtr(v int) *int { return &v }
