package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/vadimbarashkov/qrlink/internal/auth"
	"github.com/vadimbarashkov/qrlink/internal/entitlement"
	"github.com/vadimbarashkov/qrlink/internal/entity"
)

type APIKeyUseCase struct {
	apiKeyRepo apiKeyRepository
}

func NewAPIKeyUseCase(apiKeyRepo apiKeyRepository) *APIKeyUseCase {
	return &APIKeyUseCase{apiKeyRepo: apiKeyRepo}
}

// Create issues a new key. The raw key is returned once and cannot be recovered later.
func (uc *APIKeyUseCase) Create(ctx context.Context, user *entity.User, name string) (*entity.APIKey, string, error) {
	const op = "usecase.APIKeyUseCase.Create"

	if err := entitlement.Allow(user.Plan, entitlement.FeatureAPIAccess); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	raw, prefix, hash, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	key, err := uc.apiKeyRepo.Save(ctx, user.ID, strings.TrimSpace(name), prefix, hash)
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to save api key: %w", op, err)
	}

	return key, raw, nil
}

func (uc *APIKeyUseCase) List(ctx context.Context, user *entity.User) ([]entity.APIKey, error) {
	const op = "usecase.APIKeyUseCase.List"

	keys, err := uc.apiKeyRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list api keys: %w", op, err)
	}

	return keys, nil
}

func (uc *APIKeyUseCase) Delete(ctx context.Context, user *entity.User, id int64) error {
	const op = "usecase.APIKeyUseCase.Delete"

	if err := uc.apiKeyRepo.Delete(ctx, id, user.ID); err != nil {
		return fmt.Errorf("%s: failed to delete api key: %w", op, err)
	}

	return nil
}
