package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/museme-app/museme-engine/pkg/apperrors"
	"github.com/museme-app/museme-engine/pkg/database"
	"github.com/museme-app/museme-engine/pkg/models"
)

// SongRepository defines the interface for generated song data access.
// Song rows are append-only: the only permitted update is the one-time
// project backfill when a project is created around version 1.
type SongRepository interface {
	Create(ctx context.Context, song *models.Song) error
	Get(ctx context.Context, id uuid.UUID) (*models.Song, error)
	List(ctx context.Context) ([]*models.Song, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Song, error)

	// LatestByProject returns the highest-versioned song in a project.
	LatestByProject(ctx context.Context, projectID uuid.UUID) (*models.Song, error)

	// SetProject backfills the project reference on a freshly created base
	// song.
	SetProject(ctx context.Context, songID, projectID uuid.UUID) error

	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx pgx.Tx) SongRepository
}

// songRepository implements SongRepository using PostgreSQL.
type songRepository struct {
	q database.Querier
}

// NewSongRepository creates a new song repository.
func NewSongRepository(db *database.DB) SongRepository {
	return &songRepository{q: db.Pool}
}

// WithTx returns a copy bound to tx.
func (r *songRepository) WithTx(tx pgx.Tx) SongRepository {
	return &songRepository{q: tx}
}

// Create inserts a new song row.
func (r *songRepository) Create(ctx context.Context, song *models.Song) error {
	if song.ID == uuid.Nil {
		song.ID = uuid.New()
	}
	if song.GeneratedAt.IsZero() {
		song.GeneratedAt = time.Now()
	}
	if song.Version == 0 {
		song.Version = 1
	}
	if song.Status == "" {
		song.Status = models.SongStatusPending
	}

	structure, err := json.Marshal(song.Structure)
	if err != nil {
		return fmt.Errorf("failed to marshal structure: %w", err)
	}
	sounds, err := json.Marshal(song.SoundsUsed)
	if err != nil {
		return fmt.Errorf("failed to marshal sounds: %w", err)
	}

	query := `
		INSERT INTO generated_songs (
			id, project_id, version, prompt, edit_prompt, edit_time_start, edit_time_end,
			bpm, duration_seconds, structure, sounds_used, melody_description,
			generated_at, song_data, status, parent_song_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = r.q.Exec(ctx, query,
		song.ID,
		song.ProjectID,
		song.Version,
		song.Prompt,
		song.EditPrompt,
		song.EditTimeStart,
		song.EditTimeEnd,
		song.BPM,
		song.DurationSeconds,
		structure,
		sounds,
		song.MelodyDescription,
		song.GeneratedAt,
		[]byte(song.SongData),
		song.Status,
		song.ParentSongID,
	)
	if err != nil {
		return fmt.Errorf("failed to create song: %w", err)
	}
	return nil
}

// Get retrieves a song by ID.
func (r *songRepository) Get(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	row := r.q.QueryRow(ctx, songSelect+` WHERE id = $1`, id)

	song, err := scanSong(row)
	if err == pgx.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return song, nil
}

// List returns all songs, newest first.
func (r *songRepository) List(ctx context.Context) ([]*models.Song, error) {
	rows, err := r.q.Query(ctx, songSelect+` ORDER BY generated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

// ListByProject returns a project's songs in version order.
func (r *songRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Song, error) {
	rows, err := r.q.Query(ctx, songSelect+` WHERE project_id = $1 ORDER BY version ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project songs: %w", err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

// LatestByProject returns the highest-versioned song in a project.
func (r *songRepository) LatestByProject(ctx context.Context, projectID uuid.UUID) (*models.Song, error) {
	row := r.q.QueryRow(ctx,
		songSelect+` WHERE project_id = $1 ORDER BY version DESC LIMIT 1`, projectID)

	song, err := scanSong(row)
	if err == pgx.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest project song: %w", err)
	}
	return song, nil
}

// SetProject backfills the project reference on a base song.
func (r *songRepository) SetProject(ctx context.Context, songID, projectID uuid.UUID) error {
	result, err := r.q.Exec(ctx,
		`UPDATE generated_songs SET project_id = $2 WHERE id = $1`, songID, projectID)
	if err != nil {
		return fmt.Errorf("failed to set song project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const songSelect = `
	SELECT id, project_id, version, prompt, COALESCE(edit_prompt, ''),
	       edit_time_start, edit_time_end, COALESCE(bpm, 0), COALESCE(duration_seconds, 0),
	       structure, sounds_used, COALESCE(melody_description, ''),
	       generated_at, song_data, status, parent_song_id
	FROM generated_songs`

func scanSong(row pgx.Row) (*models.Song, error) {
	var s models.Song
	var structure, sounds, songData []byte
	err := row.Scan(
		&s.ID,
		&s.ProjectID,
		&s.Version,
		&s.Prompt,
		&s.EditPrompt,
		&s.EditTimeStart,
		&s.EditTimeEnd,
		&s.BPM,
		&s.DurationSeconds,
		&structure,
		&sounds,
		&s.MelodyDescription,
		&s.GeneratedAt,
		&songData,
		&s.Status,
		&s.ParentSongID,
	)
	if err != nil {
		return nil, err
	}

	if len(structure) > 0 {
		if err := json.Unmarshal(structure, &s.Structure); err != nil {
			return nil, fmt.Errorf("failed to unmarshal structure: %w", err)
		}
	}
	if len(sounds) > 0 {
		if err := json.Unmarshal(sounds, &s.SoundsUsed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sounds: %w", err)
		}
	}
	s.SongData = json.RawMessage(songData)
	return &s, nil
}

func scanSongs(rows pgx.Rows) ([]*models.Song, error) {
	var songs []*models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read songs: %w", err)
	}
	return songs, nil
}

// Ensure songRepository implements SongRepository at compile time.
var _ SongRepository = (*songRepository)(nil)
