package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/museme-app/museme-engine/pkg/apperrors"
	"github.com/museme-app/museme-engine/pkg/models"
	"github.com/museme-app/museme-engine/pkg/testhelpers"
)

func TestCredentialRepositoryIntegration(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewCredentialRepository(engineDB.DB)
	ctx := context.Background()

	cred, err := repo.Create(ctx, "sk-integration-"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Delete(ctx, cred.ID) })

	assert.True(t, cred.IsActive)

	// RecordUsage bumps counters and stamps last_used_at.
	require.NoError(t, repo.RecordUsage(ctx, cred.KeyValue, true))
	require.NoError(t, repo.RecordUsage(ctx, cred.KeyValue, false))

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	var found *models.Credential
	for _, c := range creds {
		if c.ID == cred.ID {
			found = c
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 2, found.UsageCount)
	assert.Equal(t, 1, found.ErrorCount)
	assert.NotNil(t, found.LastUsedAt)

	// Deactivated credentials leave the active rotation.
	require.NoError(t, repo.SetActive(ctx, cred.ID, false))
	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	for _, c := range active {
		assert.NotEqual(t, cred.ID, c.ID)
	}

	// Usage for unknown keys reports not found.
	err = repo.RecordUsage(ctx, "no-such-key", true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCredentialRepositoryLRUOrderIntegration(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewCredentialRepository(engineDB.DB)
	ctx := context.Background()

	first, err := repo.Create(ctx, "sk-lru-a-"+uuid.NewString())
	require.NoError(t, err)
	second, err := repo.Create(ctx, "sk-lru-b-"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.Delete(ctx, first.ID)
		_ = repo.Delete(ctx, second.ID)
	})

	// Touch the first key; it must now sort after the untouched second key.
	require.NoError(t, repo.RecordUsage(ctx, first.KeyValue, true))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)

	posFirst, posSecond := -1, -1
	for i, c := range active {
		switch c.ID {
		case first.ID:
			posFirst = i
		case second.ID:
			posSecond = i
		}
	}
	require.GreaterOrEqual(t, posFirst, 0)
	require.GreaterOrEqual(t, posSecond, 0)
	assert.Less(t, posSecond, posFirst, "never-used credentials rotate first")
}

func TestSongAndProjectRepositoriesIntegration(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	songs := NewSongRepository(engineDB.DB)
	projects := NewProjectRepository(engineDB.DB)
	ctx := context.Background()

	song := &models.Song{
		Prompt: "integration beat",
		BPM:    120,
		Structure: []models.Section{
			{Section: "intro", Start: 0, Length: 8},
		},
		SoundsUsed: []string{"kick.wav"},
		SongData:   []byte(`{"bpm": 120}`),
		Status:     models.SongStatusCompleted,
	}
	require.NoError(t, songs.Create(ctx, song))

	project := &models.Project{
		ID:         uuid.New(),
		Name:       "Integration Project",
		BaseSongID: &song.ID,
	}
	require.NoError(t, projects.Create(ctx, project))
	require.NoError(t, songs.SetProject(ctx, song.ID, project.ID))

	got, err := songs.Get(ctx, song.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ProjectID)
	assert.Equal(t, project.ID, *got.ProjectID)
	assert.Equal(t, 120, got.BPM)
	require.Len(t, got.Structure, 1)
	assert.Equal(t, "intro", got.Structure[0].Section)

	// Version bookkeeping.
	edit := &models.Song{
		ProjectID:    &project.ID,
		Version:      2,
		Prompt:       "integration beat",
		EditPrompt:   "louder",
		ParentSongID: &song.ID,
		SongData:     []byte(`{"bpm": 125}`),
		Status:       models.SongStatusCompleted,
	}
	require.NoError(t, songs.Create(ctx, edit))
	require.NoError(t, projects.BumpVersion(ctx, project.ID, 2))

	latest, err := songs.LatestByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, edit.ID, latest.ID)

	ordered, err := songs.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, 1, ordered[0].Version)
	assert.Equal(t, 2, ordered[1].Version)

	updated, err := projects.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentVersion)

	// Unknown project IDs surface as not found.
	err = projects.BumpVersion(ctx, uuid.New(), 5)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
