package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/models"
	"github.com/museme-app/museme-engine/pkg/repositories"
)

// CredentialService manages the stored generation API credentials.
type CredentialService interface {
	List(ctx context.Context) ([]*models.Credential, error)
	Add(ctx context.Context, keyValue string) (*models.Credential, error)
	Remove(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type credentialService struct {
	repo   repositories.CredentialRepository
	logger *zap.Logger
}

func NewCredentialService(repo repositories.CredentialRepository, logger *zap.Logger) CredentialService {
	return &credentialService{
		repo:   repo,
		logger: logger.Named("credential-service"),
	}
}

var _ CredentialService = (*credentialService)(nil)

func (s *credentialService) List(ctx context.Context) ([]*models.Credential, error) {
	return s.repo.List(ctx)
}

func (s *credentialService) Add(ctx context.Context, keyValue string) (*models.Credential, error) {
	keyValue = strings.TrimSpace(keyValue)
	if keyValue == "" {
		return nil, fmt.Errorf("key value is required")
	}

	cred, err := s.repo.Create(ctx, keyValue)
	if err != nil {
		s.logger.Error("Failed to add credential", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Added credential",
		zap.String("credential_id", cred.ID.String()),
		zap.String("key", cred.Redacted()))
	return cred, nil
}

func (s *credentialService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Removed credential", zap.String("credential_id", id.String()))
	return nil
}

func (s *credentialService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.logger.Info("Updated credential state",
		zap.String("credential_id", id.String()),
		zap.Bool("active", active))
	return nil
}
