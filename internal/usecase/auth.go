package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vadimbarashkov/qrlink/internal/auth"
	"github.com/vadimbarashkov/qrlink/internal/entitlement"
	"github.com/vadimbarashkov/qrlink/internal/entity"
)

type tokenManager interface {
	Generate(userID int64) (string, error)
	Validate(token string) (int64, error)
}

// Usage is what a user currently consumes of the plan limits.
type Usage struct {
	QRCodes        int64
	ShortLinks     int64
	ScansThisMonth int64
}

// Profile is the current user together with the limits of the plan.
type Profile struct {
	User   *entity.User
	Limits entitlement.Limits
	Usage  Usage
}

type AuthUseCase struct {
	userRepo   userRepository
	apiKeyRepo apiKeyRepository
	linkRepo   linkRepository
	qrCodeRepo qrCodeRepository
	hasher     passwordHasher
	tokens     tokenManager
	logger     *slog.Logger
	now        func() time.Time
}

func NewAuthUseCase(
	userRepo userRepository,
	apiKeyRepo apiKeyRepository,
	linkRepo linkRepository,
	qrCodeRepo qrCodeRepository,
	hasher passwordHasher,
	tokens tokenManager,
	logger *slog.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:   userRepo,
		apiKeyRepo: apiKeyRepo,
		linkRepo:   linkRepo,
		qrCodeRepo: qrCodeRepo,
		hasher:     hasher,
		tokens:     tokens,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a FREE account and returns it with a session token.
func (uc *AuthUseCase) Register(ctx context.Context, email, password, name string) (*entity.User, string, error) {
	const op = "usecase.AuthUseCase.Register"

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := uc.userRepo.Save(ctx, strings.TrimSpace(email), strings.TrimSpace(name), hash)
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	token, err := uc.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	return user, token, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	const op = "usecase.AuthUseCase.Login"

	user, err := uc.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, "", fmt.Errorf("%s: %w", op, entity.ErrInvalidCredentials)
		}
		return nil, "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	ok, err := uc.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to verify password: %w", op, err)
	}

	if !ok {
		return nil, "", fmt.Errorf("%s: %w", op, entity.ErrInvalidCredentials)
	}

	token, err := uc.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	return user, token, nil
}

// Authenticate returns the user behind a session token.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	const op = "usecase.AuthUseCase.Authenticate"

	userID, err := uc.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrUnauthorized, err)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	return user, nil
}

// AuthenticateAPIKey returns the owner of a raw API key. Keys stop working as
// soon as the owner's plan loses API access.
func (uc *AuthUseCase) AuthenticateAPIKey(ctx context.Context, rawKey string) (*entity.User, error) {
	const op = "usecase.AuthUseCase.AuthenticateAPIKey"

	if !strings.HasPrefix(rawKey, auth.APIKeyPrefix) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthorized)
	}

	key, err := uc.apiKeyRepo.GetByHash(ctx, auth.HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: failed to get api key: %w", op, err)
	}

	user, err := uc.userRepo.GetByID(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if !entitlement.For(user.Plan).Has(entitlement.FeatureAPIAccess) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthorized)
	}

	if err := uc.apiKeyRepo.Touch(ctx, key.ID, uc.now()); err != nil {
		uc.logger.WarnContext(ctx, "failed to update api key usage", slog.Int64("id", key.ID), slog.Any("err", err))
	}

	return user, nil
}

func (uc *AuthUseCase) Profile(ctx context.Context, user *entity.User) (*Profile, error) {
	const op = "usecase.AuthUseCase.Profile"

	qrCodes, err := uc.qrCodeRepo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count qr codes: %w", op, err)
	}

	links, err := uc.linkRepo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count short links: %w", op, err)
	}

	scans, err := uc.qrCodeRepo.CountScansByUserSince(ctx, user.ID, monthStart(uc.now()))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count scans: %w", op, err)
	}

	return &Profile{
		User:   user,
		Limits: entitlement.For(user.Plan),
		Usage: Usage{
			QRCodes:        qrCodes,
			ShortLinks:     links,
			ScansThisMonth: scans,
		},
	}, nil
}

func monthStart(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
