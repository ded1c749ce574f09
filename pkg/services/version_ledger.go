package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/apperrors"
	"github.com/museme-app/museme-engine/pkg/models"
	"github.com/museme-app/museme-engine/pkg/repositories"
)

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// VersionLedger persists generated songs and maintains the monotonically
// increasing version counter on each project. All multi-row updates happen
// inside a single transaction so a version number is never burned on a
// failed insert.
type VersionLedger interface {
	// RecordInitialGeneration stores a brand-new version-1 song. When
	// createProject is true a project is created around it and the song's
	// project reference is backfilled; projectName falls back to a dated
	// default when empty.
	RecordInitialGeneration(ctx context.Context, song *models.Song, createProject bool, projectName string) (*models.Project, error)

	// RecordEdit stores a song as the next version of an existing project.
	// Both the version number and the parent pointer are resolved inside the
	// transaction, so concurrent edits can neither duplicate a version nor
	// parent a song onto anything but the version directly below it.
	RecordEdit(ctx context.Context, projectID uuid.UUID, song *models.Song) error
}

type versionLedger struct {
	db       TxRunner
	songs    repositories.SongRepository
	projects repositories.ProjectRepository
	logger   *zap.Logger
}

func NewVersionLedger(db TxRunner, songs repositories.SongRepository, projects repositories.ProjectRepository, logger *zap.Logger) VersionLedger {
	return &versionLedger{
		db:       db,
		songs:    songs,
		projects: projects,
		logger:   logger.Named("version-ledger"),
	}
}

var _ VersionLedger = (*versionLedger)(nil)

func (l *versionLedger) RecordInitialGeneration(ctx context.Context, song *models.Song, createProject bool, projectName string) (*models.Project, error) {
	song.Version = 1
	song.Status = models.SongStatusCompleted

	if !createProject {
		if err := l.songs.Create(ctx, song); err != nil {
			l.logger.Error("Failed to store generated song", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
		}
		return nil, nil
	}

	if projectName == "" {
		projectName = defaultProjectName(time.Now())
	}

	project := &models.Project{
		ID:          uuid.New(),
		Name:        projectName,
		Description: truncate(song.Prompt, 200),
	}

	err := l.db.WithTx(ctx, func(tx pgx.Tx) error {
		songs := l.songs.WithTx(tx)
		projects := l.projects.WithTx(tx)

		if err := songs.Create(ctx, song); err != nil {
			return fmt.Errorf("store song: %w", err)
		}

		project.BaseSongID = &song.ID
		if err := projects.Create(ctx, project); err != nil {
			return fmt.Errorf("create project: %w", err)
		}

		if err := songs.SetProject(ctx, song.ID, project.ID); err != nil {
			return fmt.Errorf("link song to project: %w", err)
		}
		return nil
	})
	if err != nil {
		l.logger.Error("Failed to record initial generation",
			zap.String("project_name", projectName),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	song.ProjectID = &project.ID
	project.CurrentVersion = 1

	l.logger.Info("Recorded initial generation",
		zap.String("song_id", song.ID.String()),
		zap.String("project_id", project.ID.String()))
	return project, nil
}

func (l *versionLedger) RecordEdit(ctx context.Context, projectID uuid.UUID, song *models.Song) error {
	err := l.db.WithTx(ctx, func(tx pgx.Tx) error {
		songs := l.songs.WithTx(tx)
		projects := l.projects.WithTx(tx)

		project, err := projects.Get(ctx, projectID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.ErrProjectNotFound
			}
			return fmt.Errorf("load project: %w", err)
		}

		// Resolve the parent against the current transaction view. Any
		// snapshot the caller took before dispatching may be stale by now.
		latest, err := songs.LatestByProject(ctx, projectID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.ErrProjectNotFound
			}
			return fmt.Errorf("load latest song: %w", err)
		}

		newVersion := project.CurrentVersion + 1
		song.ProjectID = &projectID
		song.Version = newVersion
		song.ParentSongID = &latest.ID
		song.Status = models.SongStatusCompleted

		if err := songs.Create(ctx, song); err != nil {
			return fmt.Errorf("store song: %w", err)
		}
		if err := projects.BumpVersion(ctx, projectID, newVersion); err != nil {
			return fmt.Errorf("bump version: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrProjectNotFound) {
			return apperrors.ErrProjectNotFound
		}
		l.logger.Error("Failed to record edit",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	l.logger.Info("Recorded edit",
		zap.String("song_id", song.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.Int("version", song.Version))
	return nil
}

// defaultProjectName names projects created implicitly during generation.
func defaultProjectName(t time.Time) string {
	return "Beat - " + t.Format("Jan 2, 2006")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
