package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/models"
	"github.com/museme-app/museme-engine/pkg/repositories"
	"github.com/museme-app/museme-engine/pkg/storage"
)

// RegisterAssetRequest describes a sample already uploaded to object storage.
type RegisterAssetRequest struct {
	Filename string `json:"filename"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
	FilePath string `json:"file_path"`
}

// AssetService tracks the uploaded sample library. Upload itself happens
// client-side against object storage; this service registers the resulting
// objects and decorates reads with presigned playback URLs.
type AssetService interface {
	Register(ctx context.Context, req RegisterAssetRequest) (*models.Asset, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	List(ctx context.Context) ([]*models.Asset, error)
}

type assetService struct {
	repo   repositories.AssetRepository
	store  storage.ObjectStore
	logger *zap.Logger
}

// NewAssetService creates an asset service. store may be nil when object
// storage is not configured; playback URLs are then omitted.
func NewAssetService(repo repositories.AssetRepository, store storage.ObjectStore, logger *zap.Logger) AssetService {
	return &assetService{
		repo:   repo,
		store:  store,
		logger: logger.Named("asset-service"),
	}
}

var _ AssetService = (*assetService)(nil)

func (s *assetService) Register(ctx context.Context, req RegisterAssetRequest) (*models.Asset, error) {
	if req.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if req.FilePath == "" {
		req.FilePath = req.Filename
	}

	if s.store != nil {
		size, err := s.store.StatObject(ctx, req.FilePath)
		if err != nil {
			return nil, fmt.Errorf("object not found in storage: %w", err)
		}
		if req.FileSize == 0 {
			req.FileSize = size
		}
	}

	asset := &models.Asset{
		ID:       uuid.New(),
		Filename: req.Filename,
		FileType: req.FileType,
		FileSize: req.FileSize,
		FilePath: req.FilePath,
	}
	if err := s.repo.Create(ctx, asset); err != nil {
		s.logger.Error("Failed to register asset",
			zap.String("filename", req.Filename),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Registered asset",
		zap.String("asset_id", asset.ID.String()),
		zap.String("filename", asset.Filename))
	s.attachPlaybackURL(ctx, asset)
	return asset, nil
}

func (s *assetService) Get(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	asset, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachPlaybackURL(ctx, asset)
	return asset, nil
}

func (s *assetService) List(ctx context.Context) ([]*models.Asset, error) {
	assets, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, asset := range assets {
		s.attachPlaybackURL(ctx, asset)
	}
	return assets, nil
}

// attachPlaybackURL is best effort; a presign failure leaves the URL empty
// rather than failing the read.
func (s *assetService) attachPlaybackURL(ctx context.Context, asset *models.Asset) {
	if s.store == nil || asset.FilePath == "" {
		return
	}
	u, err := s.store.PresignedGetURL(ctx, asset.FilePath)
	if err != nil {
		s.logger.Warn("Failed to presign playback URL",
			zap.String("asset_id", asset.ID.String()),
			zap.Error(err))
		return
	}
	asset.PlaybackURL = u
}
