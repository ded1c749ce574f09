package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/apperrors"
	"github.com/museme-app/museme-engine/pkg/llm"
	"github.com/museme-app/museme-engine/pkg/models"
	"github.com/museme-app/museme-engine/pkg/prompts"
	"github.com/museme-app/museme-engine/pkg/repositories"
)

const sampleCacheTTL = 5 * time.Minute

// GenerateRequest describes a new-song generation.
type GenerateRequest struct {
	Prompt        string `json:"prompt"`
	CreateProject bool   `json:"create_project"`
	ProjectName   string `json:"project_name,omitempty"`
}

// GenerateResult is a stored song plus the project created around it, if any.
type GenerateResult struct {
	Song    *models.Song    `json:"song"`
	Project *models.Project `json:"project,omitempty"`
}

// EditRequest describes an edit on a project's latest song. TimeStart and
// TimeEnd scope the edit to a window in seconds; both must be present or both
// absent.
type EditRequest struct {
	Prompt    string `json:"prompt"`
	TimeStart *int   `json:"time_start,omitempty"`
	TimeEnd   *int   `json:"time_end,omitempty"`
}

// SongService drives song generation and editing end to end: prompt assembly
// over the analyzed sample library, dispatch to the generation API, payload
// extraction, and versioned persistence.
type SongService interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	Edit(ctx context.Context, projectID uuid.UUID, req EditRequest) (*models.Song, error)

	GetSong(ctx context.Context, id uuid.UUID) (*models.Song, error)
	ListSongs(ctx context.Context) ([]*models.Song, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
	ListProjectSongs(ctx context.Context, projectID uuid.UUID) ([]*models.Song, error)
}

type songService struct {
	songs      repositories.SongRepository
	projects   repositories.ProjectRepository
	assets     repositories.AssetRepository
	dispatcher GenerationDispatcher
	ledger     VersionLedger
	redis      *redis.Client
	maxRetries int
	logger     *zap.Logger
}

func NewSongService(
	songs repositories.SongRepository,
	projects repositories.ProjectRepository,
	assets repositories.AssetRepository,
	dispatcher GenerationDispatcher,
	ledger VersionLedger,
	redisClient *redis.Client,
	maxRetries int,
	logger *zap.Logger,
) SongService {
	return &songService{
		songs:      songs,
		projects:   projects,
		assets:     assets,
		dispatcher: dispatcher,
		ledger:     ledger,
		redis:      redisClient,
		maxRetries: maxRetries,
		logger:     logger.Named("song-service"),
	}
}

var _ SongService = (*songService)(nil)

func (s *songService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	samples, err := s.analyzedSamples(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sample library: %w", err)
	}

	prompt := prompts.BuildGenerationPrompt(req.Prompt, samples)
	result, err := s.dispatcher.Dispatch(ctx, prompt, s.maxRetries)
	if err != nil {
		return nil, err
	}

	arrangement, raw, err := llm.ParseJSONResponse[models.Arrangement](result.Text)
	if err != nil {
		return nil, err
	}

	song := songFromArrangement(&arrangement, raw)
	song.Prompt = req.Prompt

	project, err := s.ledger.RecordInitialGeneration(ctx, song, req.CreateProject, req.ProjectName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Generated song",
		zap.String("song_id", song.ID.String()),
		zap.Int("bpm", song.BPM),
		zap.Bool("project_created", project != nil))
	return &GenerateResult{Song: song, Project: project}, nil
}

func (s *songService) Edit(ctx context.Context, projectID uuid.UUID, req EditRequest) (*models.Song, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if err := validateTimeRange(req.TimeStart, req.TimeEnd); err != nil {
		return nil, err
	}

	latest, err := s.songs.LatestByProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, fmt.Errorf("load latest song: %w", err)
	}

	samples, err := s.analyzedSamples(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sample library: %w", err)
	}

	prompt := prompts.BuildEditPrompt(req.Prompt, latest, samples, req.TimeStart, req.TimeEnd)
	result, err := s.dispatcher.Dispatch(ctx, prompt, s.maxRetries)
	if err != nil {
		return nil, err
	}

	arrangement, raw, err := llm.ParseJSONResponse[models.Arrangement](result.Text)
	if err != nil {
		return nil, err
	}

	song := songFromArrangement(&arrangement, raw)
	song.Prompt = latest.Prompt
	song.EditPrompt = req.Prompt
	song.EditTimeStart = req.TimeStart
	song.EditTimeEnd = req.TimeEnd

	// The ledger resolves the parent inside its transaction; the song read
	// above is only used to build the edit prompt.
	if err := s.ledger.RecordEdit(ctx, projectID, song); err != nil {
		return nil, err
	}

	s.logger.Info("Edited song",
		zap.String("song_id", song.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.Int("version", song.Version))
	return song, nil
}

func (s *songService) GetSong(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	return s.songs.Get(ctx, id)
}

func (s *songService) ListSongs(ctx context.Context) ([]*models.Song, error) {
	return s.songs.List(ctx)
}

func (s *songService) ListProjects(ctx context.Context) ([]*models.Project, error) {
	return s.projects.List(ctx)
}

func (s *songService) ListProjectSongs(ctx context.Context, projectID uuid.UUID) ([]*models.Song, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, err
	}
	return s.songs.ListByProject(ctx, projectID)
}

// analyzedSamples loads the analyzed sample inventory, through the cache when
// Redis is configured. Cache failures fall through to the database.
func (s *songService) analyzedSamples(ctx context.Context) ([]models.SampleInfo, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, analyzedSamplesCacheKey).Bytes()
		if err == nil {
			var samples []models.SampleInfo
			if err := json.Unmarshal(cached, &samples); err == nil {
				return samples, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("Sample cache read failed", zap.Error(err))
		}
	}

	samples, err := s.assets.ListAnalyzedSamples(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(samples); err == nil {
			if err := s.redis.Set(ctx, analyzedSamplesCacheKey, data, sampleCacheTTL).Err(); err != nil {
				s.logger.Warn("Sample cache write failed", zap.Error(err))
			}
		}
	}
	return samples, nil
}

// validateTimeRange enforces the both-or-neither rule and start < end.
func validateTimeRange(start, end *int) error {
	if start == nil && end == nil {
		return nil
	}
	if start == nil || end == nil {
		return apperrors.ErrInvalidTimeRange
	}
	if *start < 0 || *start >= *end {
		return apperrors.ErrInvalidTimeRange
	}
	return nil
}

func songFromArrangement(a *models.Arrangement, raw json.RawMessage) *models.Song {
	return &models.Song{
		ID:                uuid.New(),
		BPM:               a.BPM,
		DurationSeconds:   a.DurationSeconds,
		Structure:         a.Structure,
		SoundsUsed:        a.SoundsUsed,
		MelodyDescription: a.MelodyDescription,
		SongData:          raw,
		GeneratedAt:       time.Now(),
	}
}
