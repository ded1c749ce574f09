package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/apperrors"
	"github.com/museme-app/museme-engine/pkg/models"
)

func TestRecordInitialGenerationWithoutProject(t *testing.T) {
	songs := newFakeSongRepo()
	projects := newFakeProjectRepo()
	ledger := NewVersionLedger(&fakeTxRunner{}, songs, projects, zap.NewNop())

	song := &models.Song{Prompt: "dark trap beat"}
	project, err := ledger.RecordInitialGeneration(context.Background(), song, false, "")
	require.NoError(t, err)

	assert.Nil(t, project)
	assert.Equal(t, 1, song.Version)
	assert.Equal(t, models.SongStatusCompleted, song.Status)
	assert.Nil(t, song.ProjectID)
	assert.Empty(t, projects.projects)
}

func TestRecordInitialGenerationCreatesProject(t *testing.T) {
	songs := newFakeSongRepo()
	projects := newFakeProjectRepo()
	tx := &fakeTxRunner{}
	ledger := NewVersionLedger(tx, songs, projects, zap.NewNop())

	song := &models.Song{Prompt: "lofi study beat"}
	project, err := ledger.RecordInitialGeneration(context.Background(), song, true, "My Beat")
	require.NoError(t, err)
	require.NotNil(t, project)

	assert.Equal(t, "My Beat", project.Name)
	assert.Equal(t, "lofi study beat", project.Description)
	assert.Equal(t, 1, project.CurrentVersion)
	require.NotNil(t, project.BaseSongID)
	assert.Equal(t, song.ID, *project.BaseSongID)

	// Song must be backfilled with the project reference.
	require.NotNil(t, song.ProjectID)
	assert.Equal(t, project.ID, *song.ProjectID)
	assert.Equal(t, 1, tx.calls, "project creation must run transactionally")
}

func TestRecordInitialGenerationDefaultProjectName(t *testing.T) {
	songs := newFakeSongRepo()
	projects := newFakeProjectRepo()
	ledger := NewVersionLedger(&fakeTxRunner{}, songs, projects, zap.NewNop())

	project, err := ledger.RecordInitialGeneration(context.Background(), &models.Song{Prompt: "x"}, true, "")
	require.NoError(t, err)
	require.NotNil(t, project)

	assert.Equal(t, defaultProjectName(time.Now()), project.Name)
}

func TestRecordEditBumpsVersion(t *testing.T) {
	songs := newFakeSongRepo()
	projects := newFakeProjectRepo()
	ledger := NewVersionLedger(&fakeTxRunner{}, songs, projects, zap.NewNop())

	projectID := uuid.New()
	projects.projects[projectID] = &models.Project{ID: projectID, CurrentVersion: 3}
	head := &models.Song{ID: uuid.New(), ProjectID: &projectID, Version: 3}
	songs.songs[head.ID] = head

	song := &models.Song{Prompt: "original", EditPrompt: "more bass"}
	err := ledger.RecordEdit(context.Background(), projectID, song)
	require.NoError(t, err)

	assert.Equal(t, 4, song.Version)
	assert.Equal(t, models.SongStatusCompleted, song.Status)
	require.NotNil(t, song.ProjectID)
	assert.Equal(t, projectID, *song.ProjectID)
	require.NotNil(t, song.ParentSongID)
	assert.Equal(t, head.ID, *song.ParentSongID)
	assert.Equal(t, []int{4}, projects.bumps)
}

func TestRecordEditOverridesStaleParent(t *testing.T) {
	songs := newFakeSongRepo()
	projects := newFakeProjectRepo()
	ledger := NewVersionLedger(&fakeTxRunner{}, songs, projects, zap.NewNop())

	projectID := uuid.New()
	projects.projects[projectID] = &models.Project{ID: projectID, CurrentVersion: 2}
	v1 := &models.Song{ID: uuid.New(), ProjectID: &projectID, Version: 1}
	v2 := &models.Song{ID: uuid.New(), ProjectID: &projectID, Version: 2}
	songs.songs[v1.ID] = v1
	songs.songs[v2.ID] = v2

	// The caller read version 1 before another edit landed version 2. The
	// ledger must parent the new song onto version 2 regardless.
	song := &models.Song{EditPrompt: "faster", ParentSongID: &v1.ID}
	require.NoError(t, ledger.RecordEdit(context.Background(), projectID, song))

	assert.Equal(t, 3, song.Version)
	require.NotNil(t, song.ParentSongID)
	assert.Equal(t, v2.ID, *song.ParentSongID)
}

func TestRecordEditProjectNotFound(t *testing.T) {
	songs := newFakeSongRepo()
	projects := newFakeProjectRepo()
	ledger := NewVersionLedger(&fakeTxRunner{}, songs, projects, zap.NewNop())

	err := ledger.RecordEdit(context.Background(), uuid.New(), &models.Song{})
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
	assert.Empty(t, songs.created, "no song row may be written for a missing project")
}

func TestRecordEditPersistenceFailure(t *testing.T) {
	songs := newFakeSongRepo()
	songs.err = assert.AnError
	projects := newFakeProjectRepo()
	ledger := NewVersionLedger(&fakeTxRunner{}, songs, projects, zap.NewNop())

	projectID := uuid.New()
	projects.projects[projectID] = &models.Project{ID: projectID, CurrentVersion: 1}
	base := &models.Song{ID: uuid.New(), ProjectID: &projectID, Version: 1}
	songs.songs[base.ID] = base

	err := ledger.RecordEdit(context.Background(), projectID, &models.Song{})
	assert.ErrorIs(t, err, apperrors.ErrPersistenceFailure)
	assert.Empty(t, projects.bumps, "version must not advance when the insert fails")
}
