package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/llm"
	"github.com/museme-app/museme-engine/pkg/models"
	"github.com/museme-app/museme-engine/pkg/prompts"
	"github.com/museme-app/museme-engine/pkg/repositories"
)

// GenerationDispatcher sends a prompt to the external generation API with
// credential rotation and retry.
type GenerationDispatcher interface {
	Dispatch(ctx context.Context, prompt string, maxRetriesPerCredential int) (*llm.DispatchResult, error)
}

// AnalysisSummary reports the outcome of a batch analysis pass.
type AnalysisSummary struct {
	Analyzed int      `json:"analyzed"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// AnalysisService runs sample analysis through the generation API and stores
// the structured results on the asset rows.
type AnalysisService interface {
	// AnalyzeAsset analyzes a single asset. Already-analyzed assets are
	// returned as-is unless force is set.
	AnalyzeAsset(ctx context.Context, id uuid.UUID, force bool) (*models.Asset, error)

	// AnalyzeAll analyzes every unanalyzed asset sequentially. Per-asset
	// failures are collected rather than aborting the batch.
	AnalyzeAll(ctx context.Context) (*AnalysisSummary, error)
}

type analysisService struct {
	assets     repositories.AssetRepository
	dispatcher GenerationDispatcher
	redis      *redis.Client
	maxRetries int
	logger     *zap.Logger
}

func NewAnalysisService(assets repositories.AssetRepository, dispatcher GenerationDispatcher, redisClient *redis.Client, maxRetries int, logger *zap.Logger) AnalysisService {
	return &analysisService{
		assets:     assets,
		dispatcher: dispatcher,
		redis:      redisClient,
		maxRetries: maxRetries,
		logger:     logger.Named("analysis-service"),
	}
}

var _ AnalysisService = (*analysisService)(nil)

func (s *analysisService) AnalyzeAsset(ctx context.Context, id uuid.UUID, force bool) (*models.Asset, error) {
	asset, err := s.assets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset.Analyzed && !force {
		return asset, nil
	}

	if err := s.analyze(ctx, asset); err != nil {
		return nil, err
	}
	return s.assets.Get(ctx, id)
}

func (s *analysisService) AnalyzeAll(ctx context.Context) (*AnalysisSummary, error) {
	pending, err := s.assets.ListUnanalyzed(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unanalyzed assets: %w", err)
	}

	summary := &AnalysisSummary{}
	for _, asset := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.analyze(ctx, asset); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", asset.Filename, err))
			s.logger.Warn("Asset analysis failed",
				zap.String("asset_id", asset.ID.String()),
				zap.String("filename", asset.Filename),
				zap.Error(err))
			continue
		}
		summary.Analyzed++
	}

	s.logger.Info("Batch analysis complete",
		zap.Int("analyzed", summary.Analyzed),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *analysisService) analyze(ctx context.Context, asset *models.Asset) error {
	prompt := prompts.BuildAnalysisPrompt(asset.Filename, asset.FileType)

	result, err := s.dispatcher.Dispatch(ctx, prompt, s.maxRetries)
	if err != nil {
		return err
	}

	analysis, _, err := llm.ParseJSONResponse[models.AnalysisResult](result.Text)
	if err != nil {
		return fmt.Errorf("parse analysis for %s: %w", asset.Filename, err)
	}
	if analysis.Category == "" {
		analysis.Category = models.CategoryOther
	}

	if err := s.assets.SaveAnalysis(ctx, asset.ID, &analysis, prompt, result.Text); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	invalidateSampleCache(ctx, s.redis, s.logger)
	return nil
}

// analyzedSamplesCacheKey caches the analyzed-sample inventory used to build
// generation prompts.
const analyzedSamplesCacheKey = "museme:samples:analyzed"

func invalidateSampleCache(ctx context.Context, client *redis.Client, logger *zap.Logger) {
	if client == nil {
		return
	}
	if err := client.Del(ctx, analyzedSamplesCacheKey).Err(); err != nil {
		logger.Warn("Failed to invalidate sample cache", zap.Error(err))
	}
}
