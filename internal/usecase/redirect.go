package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/vadimbarashkov/qrlink/internal/abtest"
	"github.com/vadimbarashkov/qrlink/internal/entity"
)

// Resolution is where a visitor is sent after a successful lookup.
type Resolution struct {
	TargetURL string
	VariantID *string
}

// RedirectUseCase resolves QR codes and short links into their destination.
//
// The max scans/clicks check reads the live count without locking, so concurrent
// visits around the limit may all pass before the resource is deactivated.
type RedirectUseCase struct {
	linkRepo   linkRepository
	qrCodeRepo qrCodeRepository
	abTestRepo abTestRepository
	logger     *slog.Logger
	now        func() time.Time
	rnd        func() float64
}

func NewRedirectUseCase(
	linkRepo linkRepository,
	qrCodeRepo qrCodeRepository,
	abTestRepo abTestRepository,
	logger *slog.Logger,
) *RedirectUseCase {
	return &RedirectUseCase{
		linkRepo:   linkRepo,
		qrCodeRepo: qrCodeRepo,
		abTestRepo: abTestRepo,
		logger:     logger,
		now:        time.Now,
		rnd:        rand.Float64,
	}
}

func (uc *RedirectUseCase) ResolveQRCode(ctx context.Context, id string, visit entity.Visit, unlocked bool) (*Resolution, error) {
	const op = "usecase.RedirectUseCase.ResolveQRCode"

	qr, err := uc.qrCodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get qr code: %w", op, err)
	}

	if reason, deactivate := expiry(qr.IsActive, qr.ExpiresAt, qr.MaxScans, qr.ScanCount, uc.now()); reason != "" {
		if deactivate {
			if err := uc.qrCodeRepo.Deactivate(ctx, qr.ID); err != nil {
				uc.logger.ErrorContext(ctx, "failed to deactivate qr code", slog.String("id", qr.ID), slog.Any("err", err))
			}
		}
		return nil, wrapExpired(op, reason)
	}

	if qr.IsProtected() && !unlocked {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrPasswordRequired)
	}

	res := &Resolution{TargetURL: qr.TargetURL}
	if v, ok := uc.pickVariant(ctx, qr.ID); ok {
		variantID := v.ID
		res.TargetURL = v.URL
		res.VariantID = &variantID
	}
	res.TargetURL = NormalizeURL(res.TargetURL)

	if err := uc.qrCodeRepo.SaveScan(ctx, qr.ID, res.VariantID, visit); err != nil {
		uc.logger.ErrorContext(ctx, "failed to record scan", slog.String("id", qr.ID), slog.Any("err", err))
	}

	return res, nil
}

func (uc *RedirectUseCase) ResolveShortLink(ctx context.Context, code string, visit entity.Visit, unlocked bool) (*Resolution, error) {
	const op = "usecase.RedirectUseCase.ResolveShortLink"

	link, err := uc.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get short link: %w", op, err)
	}

	if reason, deactivate := expiry(link.IsActive, link.ExpiresAt, link.MaxClicks, link.ClickCount, uc.now()); reason != "" {
		if deactivate {
			if err := uc.linkRepo.Deactivate(ctx, link.ID); err != nil {
				uc.logger.ErrorContext(ctx, "failed to deactivate short link", slog.String("code", link.ShortCode), slog.Any("err", err))
			}
		}
		return nil, wrapExpired(op, reason)
	}

	if link.IsProtected() && !unlocked {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrPasswordRequired)
	}

	if err := uc.linkRepo.SaveClick(ctx, link.ID, visit); err != nil {
		uc.logger.ErrorContext(ctx, "failed to record click", slog.String("code", link.ShortCode), slog.Any("err", err))
	}

	return &Resolution{
		TargetURL: appendUTM(NormalizeURL(link.TargetURL), link.UTM),
	}, nil
}

// pickVariant returns the variant of the active A/B test of a QR code, if any.
// Lookup failures fall back to the stored target.
func (uc *RedirectUseCase) pickVariant(ctx context.Context, qrCodeID string) (entity.Variant, bool) {
	test, err := uc.abTestRepo.GetByQRCode(ctx, qrCodeID)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			uc.logger.ErrorContext(ctx, "failed to get ab test", slog.String("id", qrCodeID), slog.Any("err", err))
		}
		return entity.Variant{}, false
	}

	if !test.IsActive {
		return entity.Variant{}, false
	}

	return abtest.Select(test.Variants, uc.rnd)
}
