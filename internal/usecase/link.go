package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vadimbarashkov/qrlink/internal/entitlement"
	"github.com/vadimbarashkov/qrlink/internal/entity"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type CreateLinkInput struct {
	TargetURL  string
	CustomCode string
	ExpiresAt  *time.Time
	MaxClicks  *int64
	Password   *string
	UTM        entity.UTMParams
}

// UpdateLinkInput replaces the mutable fields of a link. A nil Password keeps the
// current one, an empty Password removes it. A nil IsActive keeps the current state.
type UpdateLinkInput struct {
	TargetURL string
	ExpiresAt *time.Time
	MaxClicks *int64
	Password  *string
	IsActive  *bool
	UTM       entity.UTMParams
}

type LinkUseCase struct {
	shortCodeLength int
	linkRepo        linkRepository
	hasher          passwordHasher
	now             func() time.Time
}

func NewLinkUseCase(shortCodeLength int, linkRepo linkRepository, hasher passwordHasher) *LinkUseCase {
	return &LinkUseCase{
		shortCodeLength: shortCodeLength,
		linkRepo:        linkRepo,
		hasher:          hasher,
		now:             time.Now,
	}
}

func (uc *LinkUseCase) Create(ctx context.Context, user *entity.User, in CreateLinkInput) (*entity.ShortLink, error) {
	const op = "usecase.LinkUseCase.Create"

	count, err := uc.linkRepo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count short links: %w", op, err)
	}

	if err := entitlement.AllowCount(user.Plan, entitlement.ResourceShortLinks, count); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	passwordHash, err := hashResourcePassword(uc.hasher, user.Plan, in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link := &entity.ShortLink{
		UserID:       user.ID,
		TargetURL:    in.TargetURL,
		IsActive:     true,
		ExpiresAt:    in.ExpiresAt,
		MaxClicks:    in.MaxClicks,
		PasswordHash: passwordHash,
		UTM:          in.UTM,
	}

	if in.CustomCode != "" {
		link.ShortCode = in.CustomCode

		saved, err := uc.linkRepo.Save(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to save short link: %w", op, err)
		}

		return saved, nil
	}

	length := uc.shortCodeLength

	for i := 0; i < maxRetries; i++ {
		shortCode, err := gonanoid.New(length)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		link.ShortCode = shortCode

		saved, err := uc.linkRepo.Save(ctx, link)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				length++
				continue
			}

			return nil, fmt.Errorf("%s: failed to save short link: %w", op, err)
		}

		return saved, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

func (uc *LinkUseCase) List(ctx context.Context, user *entity.User, page Page) ([]entity.ShortLink, int64, error) {
	const op = "usecase.LinkUseCase.List"

	page = page.Normalize()

	links, err := uc.linkRepo.ListByUser(ctx, user.ID, page.Size, page.offset())
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to list short links: %w", op, err)
	}

	total, err := uc.linkRepo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count short links: %w", op, err)
	}

	return links, total, nil
}

func (uc *LinkUseCase) Get(ctx context.Context, user *entity.User, code string) (*entity.ShortLink, error) {
	const op = "usecase.LinkUseCase.Get"

	link, err := uc.owned(ctx, user, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return link, nil
}

func (uc *LinkUseCase) Update(ctx context.Context, user *entity.User, code string, in UpdateLinkInput) (*entity.ShortLink, error) {
	const op = "usecase.LinkUseCase.Update"

	link, err := uc.owned(ctx, user, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.Password != nil {
		passwordHash, err := hashResourcePassword(uc.hasher, user.Plan, in.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		link.PasswordHash = passwordHash
	}

	link.TargetURL = in.TargetURL
	link.ExpiresAt = in.ExpiresAt
	link.MaxClicks = in.MaxClicks
	link.UTM = in.UTM
	if in.IsActive != nil {
		link.IsActive = *in.IsActive
	}

	updated, err := uc.linkRepo.Update(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update short link: %w", op, err)
	}

	return updated, nil
}

func (uc *LinkUseCase) Delete(ctx context.Context, user *entity.User, code string) error {
	const op = "usecase.LinkUseCase.Delete"

	link, err := uc.owned(ctx, user, code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := uc.linkRepo.Delete(ctx, link.ID); err != nil {
		return fmt.Errorf("%s: failed to delete short link: %w", op, err)
	}

	return nil
}

// Stats returns the clicks of a link over the last days. Plans without advanced
// analytics only get the total.
func (uc *LinkUseCase) Stats(ctx context.Context, user *entity.User, code string, days int) (*entity.VisitStats, error) {
	const op = "usecase.LinkUseCase.Stats"

	link, err := uc.owned(ctx, user, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats, err := uc.linkRepo.Stats(ctx, link.ID, statsSince(uc.now(), days))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get stats: %w", op, err)
	}

	if !entitlement.For(user.Plan).Has(entitlement.FeatureAdvancedAnalytics) {
		return stripAdvancedStats(stats), nil
	}

	return stats, nil
}

func (uc *LinkUseCase) owned(ctx context.Context, user *entity.User, code string) (*entity.ShortLink, error) {
	link, err := uc.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get short link: %w", err)
	}

	if err := checkOwner(link.UserID, user); err != nil {
		return nil, err
	}

	return link, nil
}

// hashResourcePassword hashes the password protecting a link or QR code.
// It returns nil for a missing or empty password.
func hashResourcePassword(hasher passwordHasher, plan entity.Plan, password *string) (*string, error) {
	if password == nil || *password == "" {
		return nil, nil
	}

	if err := entitlement.Allow(plan, entitlement.FeaturePasswordProtection); err != nil {
		return nil, err
	}

	hash, err := hasher.Hash(*password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &hash, nil
}
