package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vadimbarashkov/qrlink/internal/abtest"
	"github.com/vadimbarashkov/qrlink/internal/entitlement"
	"github.com/vadimbarashkov/qrlink/internal/entity"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	qrCodeIDLength  = 10
	variantIDLength = 8
)

var freeTemplates = map[string]struct{}{
	"":        {},
	"classic": {},
	"rounded": {},
}

type CreateQRCodeInput struct {
	Name      string
	TargetURL string
	Style     entity.QRStyle
	ExpiresAt *time.Time
	MaxScans  *int64
	Password  *string
}

// UpdateQRCodeInput follows the same rules as UpdateLinkInput.
type UpdateQRCodeInput struct {
	Name      string
	TargetURL string
	Style     entity.QRStyle
	ExpiresAt *time.Time
	MaxScans  *int64
	Password  *string
	IsActive  *bool
}

type QRCodeUseCase struct {
	qrCodeRepo qrCodeRepository
	abTestRepo abTestRepository
	hasher     passwordHasher
	now        func() time.Time
}

func NewQRCodeUseCase(qrCodeRepo qrCodeRepository, abTestRepo abTestRepository, hasher passwordHasher) *QRCodeUseCase {
	return &QRCodeUseCase{
		qrCodeRepo: qrCodeRepo,
		abTestRepo: abTestRepo,
		hasher:     hasher,
		now:        time.Now,
	}
}

func (uc *QRCodeUseCase) Create(ctx context.Context, user *entity.User, in CreateQRCodeInput) (*entity.QRCode, error) {
	const op = "usecase.QRCodeUseCase.Create"

	count, err := uc.qrCodeRepo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count qr codes: %w", op, err)
	}

	if err := entitlement.AllowCount(user.Plan, entitlement.ResourceQRCodes, count); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := allowTemplate(user.Plan, in.Style.Template); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	passwordHash, err := hashResourcePassword(uc.hasher, user.Plan, in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	qr := &entity.QRCode{
		UserID:       user.ID,
		Name:         in.Name,
		TargetURL:    in.TargetURL,
		Style:        in.Style,
		IsActive:     true,
		ExpiresAt:    in.ExpiresAt,
		MaxScans:     in.MaxScans,
		PasswordHash: passwordHash,
	}

	for i := 0; i < maxRetries; i++ {
		id, err := gonanoid.New(qrCodeIDLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate id: %w", op, err)
		}

		qr.ID = id

		saved, err := uc.qrCodeRepo.Save(ctx, qr)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to save qr code: %w", op, err)
		}

		return saved, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

func (uc *QRCodeUseCase) List(ctx context.Context, user *entity.User, page Page) ([]entity.QRCode, int64, error) {
	const op = "usecase.QRCodeUseCase.List"

	page = page.Normalize()

	qrs, err := uc.qrCodeRepo.ListByUser(ctx, user.ID, page.Size, page.offset())
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to list qr codes: %w", op, err)
	}

	total, err := uc.qrCodeRepo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count qr codes: %w", op, err)
	}

	return qrs, total, nil
}

func (uc *QRCodeUseCase) Get(ctx context.Context, user *entity.User, id string) (*entity.QRCode, error) {
	const op = "usecase.QRCodeUseCase.Get"

	qr, err := uc.owned(ctx, user, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return qr, nil
}

func (uc *QRCodeUseCase) Update(ctx context.Context, user *entity.User, id string, in UpdateQRCodeInput) (*entity.QRCode, error) {
	const op = "usecase.QRCodeUseCase.Update"

	qr, err := uc.owned(ctx, user, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.Style.Template != qr.Style.Template {
		if err := allowTemplate(user.Plan, in.Style.Template); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if in.Password != nil {
		passwordHash, err := hashResourcePassword(uc.hasher, user.Plan, in.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		qr.PasswordHash = passwordHash
	}

	qr.Name = in.Name
	qr.TargetURL = in.TargetURL
	qr.Style = in.Style
	qr.ExpiresAt = in.ExpiresAt
	qr.MaxScans = in.MaxScans
	if in.IsActive != nil {
		qr.IsActive = *in.IsActive
	}

	updated, err := uc.qrCodeRepo.Update(ctx, qr)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update qr code: %w", op, err)
	}

	return updated, nil
}

func (uc *QRCodeUseCase) Delete(ctx context.Context, user *entity.User, id string) error {
	const op = "usecase.QRCodeUseCase.Delete"

	qr, err := uc.owned(ctx, user, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := uc.qrCodeRepo.Delete(ctx, qr.ID); err != nil {
		return fmt.Errorf("%s: failed to delete qr code: %w", op, err)
	}

	return nil
}

func (uc *QRCodeUseCase) Stats(ctx context.Context, user *entity.User, id string, days int) (*entity.VisitStats, error) {
	const op = "usecase.QRCodeUseCase.Stats"

	qr, err := uc.owned(ctx, user, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats, err := uc.qrCodeRepo.Stats(ctx, qr.ID, statsSince(uc.now(), days))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get stats: %w", op, err)
	}

	if !entitlement.For(user.Plan).Has(entitlement.FeatureAdvancedAnalytics) {
		return stripAdvancedStats(stats), nil
	}

	return stats, nil
}

func (uc *QRCodeUseCase) GetABTest(ctx context.Context, user *entity.User, id string) (*entity.ABTest, error) {
	const op = "usecase.QRCodeUseCase.GetABTest"

	if err := uc.abTestAccess(ctx, user, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	test, err := uc.abTestRepo.GetByQRCode(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get ab test: %w", op, err)
	}

	return test, nil
}

// SetABTest creates or replaces the A/B test of a QR code. Variants without an id get one.
func (uc *QRCodeUseCase) SetABTest(ctx context.Context, user *entity.User, id string, variants []entity.Variant, isActive bool) (*entity.ABTest, error) {
	const op = "usecase.QRCodeUseCase.SetABTest"

	if err := uc.abTestAccess(ctx, user, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := abtest.Validate(variants); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range variants {
		if variants[i].ID != "" {
			continue
		}

		variantID, err := gonanoid.New(variantIDLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate variant id: %w", op, err)
		}
		variants[i].ID = variantID
	}

	test, err := uc.abTestRepo.Upsert(ctx, id, variants, isActive)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to save ab test: %w", op, err)
	}

	return test, nil
}

func (uc *QRCodeUseCase) DeleteABTest(ctx context.Context, user *entity.User, id string) error {
	const op = "usecase.QRCodeUseCase.DeleteABTest"

	if err := uc.abTestAccess(ctx, user, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := uc.abTestRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to delete ab test: %w", op, err)
	}

	return nil
}

func (uc *QRCodeUseCase) abTestAccess(ctx context.Context, user *entity.User, id string) error {
	if err := entitlement.Allow(user.Plan, entitlement.FeatureABTesting); err != nil {
		return err
	}

	_, err := uc.owned(ctx, user, id)
	return err
}

func (uc *QRCodeUseCase) owned(ctx context.Context, user *entity.User, id string) (*entity.QRCode, error) {
	qr, err := uc.qrCodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get qr code: %w", err)
	}

	if err := checkOwner(qr.UserID, user); err != nil {
		return nil, err
	}

	return qr, nil
}

func allowTemplate(plan entity.Plan, template string) error {
	if _, ok := freeTemplates[template]; ok {
		return nil
	}
	return entitlement.Allow(plan, entitlement.FeaturePremiumTemplates)
}
