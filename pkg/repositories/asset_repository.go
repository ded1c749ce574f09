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

// AssetRepository defines the interface for music asset data access.
type AssetRepository interface {
	// Create registers an uploaded asset. The file itself is stored by the
	// upload pipeline; only metadata lands here.
	Create(ctx context.Context, asset *models.Asset) error

	// Get retrieves an asset by ID.
	Get(ctx context.Context, id uuid.UUID) (*models.Asset, error)

	// List returns all assets, newest upload first.
	List(ctx context.Context) ([]*models.Asset, error)

	// ListUnanalyzed returns assets awaiting analysis.
	ListUnanalyzed(ctx context.Context) ([]*models.Asset, error)

	// ListAnalyzedSamples returns the prompt-context slice of every analyzed
	// asset.
	ListAnalyzedSamples(ctx context.Context) ([]models.SampleInfo, error)

	// SaveAnalysis records an analysis result and marks the asset analyzed.
	SaveAnalysis(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, prompt, rawResponse string) error
}

// assetRepository implements AssetRepository using PostgreSQL.
type assetRepository struct {
	q database.Querier
}

// NewAssetRepository creates a new asset repository.
func NewAssetRepository(db *database.DB) AssetRepository {
	return &assetRepository{q: db.Pool}
}

// Create registers an uploaded asset.
func (r *assetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	if asset.UploadedAt.IsZero() {
		asset.UploadedAt = time.Now()
	}

	query := `
		INSERT INTO music_assets (id, filename, file_type, file_size, file_path, uploaded_at, analyzed)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)`

	_, err := r.q.Exec(ctx, query,
		asset.ID,
		asset.Filename,
		asset.FileType,
		asset.FileSize,
		asset.FilePath,
		asset.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// Get retrieves an asset by ID.
func (r *assetRepository) Get(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	row := r.q.QueryRow(ctx, assetSelect+` WHERE id = $1`, id)

	asset, err := scanAsset(row)
	if err == pgx.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

// List returns all assets, newest upload first.
func (r *assetRepository) List(ctx context.Context) ([]*models.Asset, error) {
	rows, err := r.q.Query(ctx, assetSelect+` ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}

// ListUnanalyzed returns assets awaiting analysis, oldest upload first.
func (r *assetRepository) ListUnanalyzed(ctx context.Context) ([]*models.Asset, error) {
	rows, err := r.q.Query(ctx, assetSelect+` WHERE NOT analyzed ORDER BY uploaded_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unanalyzed assets: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}

// ListAnalyzedSamples returns prompt context for every analyzed asset.
func (r *assetRepository) ListAnalyzedSamples(ctx context.Context) ([]models.SampleInfo, error) {
	query := `
		SELECT filename, COALESCE(description, ''), COALESCE(category, 'other'), tags
		FROM music_assets
		WHERE analyzed
		ORDER BY filename ASC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyzed samples: %w", err)
	}
	defer rows.Close()

	var samples []models.SampleInfo
	for rows.Next() {
		var s models.SampleInfo
		var tags []byte
		if err := rows.Scan(&s.Filename, &s.Description, &s.Category, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &s.Tags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
			}
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	return samples, nil
}

// SaveAnalysis records an analysis result and marks the asset analyzed.
func (r *assetRepository) SaveAnalysis(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, prompt, rawResponse string) error {
	tags, err := json.Marshal(result.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		UPDATE music_assets
		SET description = $2,
		    category = $3,
		    tags = $4,
		    analyzed = TRUE,
		    analysis_prompt = $5,
		    analysis_response = $6
		WHERE id = $1`

	res, err := r.q.Exec(ctx, query, id, result.Description, result.Category, tags, prompt, rawResponse)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const assetSelect = `
	SELECT id, filename, file_type, file_size, file_path, uploaded_at,
	       COALESCE(description, ''), COALESCE(category, ''), tags, analyzed,
	       COALESCE(analysis_prompt, ''), COALESCE(analysis_response, '')
	FROM music_assets`

func scanAsset(row pgx.Row) (*models.Asset, error) {
	var a models.Asset
	var tags []byte
	err := row.Scan(
		&a.ID,
		&a.Filename,
		&a.FileType,
		&a.FileSize,
		&a.FilePath,
		&a.UploadedAt,
		&a.Description,
		&a.Category,
		&tags,
		&a.Analyzed,
		&a.AnalysisPrompt,
		&a.AnalysisResponse,
	)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &a.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	return &a, nil
}

func scanAssets(rows pgx.Rows) ([]*models.Asset, error) {
	var assets []*models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assets: %w", err)
	}
	return assets, nil
}

// Ensure assetRepository implements AssetRepository at compile time.
var _ AssetRepository = (*assetRepository)(nil)
