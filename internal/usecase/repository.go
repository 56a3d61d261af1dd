package usecase

import (
	"context"
	"time"

	"github.com/vadimbarashkov/qrlink/internal/entity"
)

type userRepository interface {
	Save(ctx context.Context, email, name, passwordHash string) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

type apiKeyRepository interface {
	Save(ctx context.Context, userID int64, name, prefix, keyHash string) (*entity.APIKey, error)
	GetByHash(ctx context.Context, keyHash string) (*entity.APIKey, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.APIKey, error)
	Touch(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id, userID int64) error
}

type linkRepository interface {
	Save(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error)
	GetByCode(ctx context.Context, shortCode string) (*entity.ShortLink, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]entity.ShortLink, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Update(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error)
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	SaveClick(ctx context.Context, linkID int64, visit entity.Visit) error
	Stats(ctx context.Context, linkID int64, since time.Time) (*entity.VisitStats, error)
}

type qrCodeRepository interface {
	Save(ctx context.Context, qr *entity.QRCode) (*entity.QRCode, error)
	GetByID(ctx context.Context, id string) (*entity.QRCode, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]entity.QRCode, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Update(ctx context.Context, qr *entity.QRCode) (*entity.QRCode, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	SaveScan(ctx context.Context, qrCodeID string, variantID *string, visit entity.Visit) error
	CountScansByUserSince(ctx context.Context, userID int64, since time.Time) (int64, error)
	Stats(ctx context.Context, qrCodeID string, since time.Time) (*entity.VisitStats, error)
}

type abTestRepository interface {
	Upsert(ctx context.Context, qrCodeID string, variants []entity.Variant, isActive bool) (*entity.ABTest, error)
	GetByQRCode(ctx context.Context, qrCodeID string) (*entity.ABTest, error)
	Delete(ctx context.Context, qrCodeID string) error
}

type teamRepository interface {
	Create(ctx context.Context, ownerID int64, name string) (*entity.Team, error)
	GetByID(ctx context.Context, id int64) (*entity.Team, error)
	ListMembers(ctx context.Context, teamID int64) ([]entity.TeamMember, error)
	CountSeats(ctx context.Context, teamID int64, now time.Time) (int64, error)
	IsMemberEmail(ctx context.Context, teamID int64, email string) (bool, error)
	SaveInvitation(ctx context.Context, inv *entity.Invitation) (*entity.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*entity.Invitation, error)
	AcceptInvitation(ctx context.Context, inv *entity.Invitation, userID int64) (*entity.TeamMember, error)
	RemoveMember(ctx context.Context, teamID, userID int64) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}
