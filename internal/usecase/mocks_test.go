package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vadimbarashkov/qrlink/internal/entity"
)

type mockUserRepository struct{ mock.Mock }

func (m *mockUserRepository) Save(ctx context.Context, email, name, passwordHash string) (*entity.User, error) {
	args := m.Called(ctx, email, name, passwordHash)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

type mockAPIKeyRepository struct{ mock.Mock }

func (m *mockAPIKeyRepository) Save(ctx context.Context, userID int64, name, prefix, keyHash string) (*entity.APIKey, error) {
	args := m.Called(ctx, userID, name, prefix, keyHash)
	key, _ := args.Get(0).(*entity.APIKey)
	return key, args.Error(1)
}

func (m *mockAPIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*entity.APIKey, error) {
	args := m.Called(ctx, keyHash)
	key, _ := args.Get(0).(*entity.APIKey)
	return key, args.Error(1)
}

func (m *mockAPIKeyRepository) ListByUser(ctx context.Context, userID int64) ([]entity.APIKey, error) {
	args := m.Called(ctx, userID)
	keys, _ := args.Get(0).([]entity.APIKey)
	return keys, args.Error(1)
}

func (m *mockAPIKeyRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockAPIKeyRepository) Delete(ctx context.Context, id, userID int64) error {
	return m.Called(ctx, id, userID).Error(0)
}

type mockLinkRepository struct{ mock.Mock }

func (m *mockLinkRepository) Save(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error) {
	args := m.Called(ctx, link)
	saved, _ := args.Get(0).(*entity.ShortLink)
	return saved, args.Error(1)
}

func (m *mockLinkRepository) GetByCode(ctx context.Context, shortCode string) (*entity.ShortLink, error) {
	args := m.Called(ctx, shortCode)
	link, _ := args.Get(0).(*entity.ShortLink)
	return link, args.Error(1)
}

func (m *mockLinkRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]entity.ShortLink, error) {
	args := m.Called(ctx, userID, limit, offset)
	links, _ := args.Get(0).([]entity.ShortLink)
	return links, args.Error(1)
}

func (m *mockLinkRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLinkRepository) Update(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error) {
	args := m.Called(ctx, link)
	updated, _ := args.Get(0).(*entity.ShortLink)
	return updated, args.Error(1)
}

func (m *mockLinkRepository) Deactivate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockLinkRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockLinkRepository) SaveClick(ctx context.Context, linkID int64, visit entity.Visit) error {
	return m.Called(ctx, linkID, visit).Error(0)
}

func (m *mockLinkRepository) Stats(ctx context.Context, linkID int64, since time.Time) (*entity.VisitStats, error) {
	args := m.Called(ctx, linkID, since)
	stats, _ := args.Get(0).(*entity.VisitStats)
	return stats, args.Error(1)
}

type mockQRCodeRepository struct{ mock.Mock }

func (m *mockQRCodeRepository) Save(ctx context.Context, qr *entity.QRCode) (*entity.QRCode, error) {
	args := m.Called(ctx, qr)
	saved, _ := args.Get(0).(*entity.QRCode)
	return saved, args.Error(1)
}

func (m *mockQRCodeRepository) GetByID(ctx context.Context, id string) (*entity.QRCode, error) {
	args := m.Called(ctx, id)
	qr, _ := args.Get(0).(*entity.QRCode)
	return qr, args.Error(1)
}

func (m *mockQRCodeRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]entity.QRCode, error) {
	args := m.Called(ctx, userID, limit, offset)
	qrs, _ := args.Get(0).([]entity.QRCode)
	return qrs, args.Error(1)
}

func (m *mockQRCodeRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockQRCodeRepository) Update(ctx context.Context, qr *entity.QRCode) (*entity.QRCode, error) {
	args := m.Called(ctx, qr)
	updated, _ := args.Get(0).(*entity.QRCode)
	return updated, args.Error(1)
}

func (m *mockQRCodeRepository) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockQRCodeRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockQRCodeRepository) SaveScan(ctx context.Context, qrCodeID string, variantID *string, visit entity.Visit) error {
	return m.Called(ctx, qrCodeID, variantID, visit).Error(0)
}

func (m *mockQRCodeRepository) CountScansByUserSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockQRCodeRepository) Stats(ctx context.Context, qrCodeID string, since time.Time) (*entity.VisitStats, error) {
	args := m.Called(ctx, qrCodeID, since)
	stats, _ := args.Get(0).(*entity.VisitStats)
	return stats, args.Error(1)
}

type mockABTestRepository struct{ mock.Mock }

func (m *mockABTestRepository) Upsert(ctx context.Context, qrCodeID string, variants []entity.Variant, isActive bool) (*entity.ABTest, error) {
	args := m.Called(ctx, qrCodeID, variants, isActive)
	test, _ := args.Get(0).(*entity.ABTest)
	return test, args.Error(1)
}

func (m *mockABTestRepository) GetByQRCode(ctx context.Context, qrCodeID string) (*entity.ABTest, error) {
	args := m.Called(ctx, qrCodeID)
	test, _ := args.Get(0).(*entity.ABTest)
	return test, args.Error(1)
}

func (m *mockABTestRepository) Delete(ctx context.Context, qrCodeID string) error {
	return m.Called(ctx, qrCodeID).Error(0)
}

type mockTeamRepository struct{ mock.Mock }

func (m *mockTeamRepository) Create(ctx context.Context, ownerID int64, name string) (*entity.Team, error) {
	args := m.Called(ctx, ownerID, name)
	team, _ := args.Get(0).(*entity.Team)
	return team, args.Error(1)
}

func (m *mockTeamRepository) GetByID(ctx context.Context, id int64) (*entity.Team, error) {
	args := m.Called(ctx, id)
	team, _ := args.Get(0).(*entity.Team)
	return team, args.Error(1)
}

func (m *mockTeamRepository) ListMembers(ctx context.Context, teamID int64) ([]entity.TeamMember, error) {
	args := m.Called(ctx, teamID)
	members, _ := args.Get(0).([]entity.TeamMember)
	return members, args.Error(1)
}

func (m *mockTeamRepository) CountSeats(ctx context.Context, teamID int64, now time.Time) (int64, error) {
	args := m.Called(ctx, teamID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTeamRepository) IsMemberEmail(ctx context.Context, teamID int64, email string) (bool, error) {
	args := m.Called(ctx, teamID, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockTeamRepository) SaveInvitation(ctx context.Context, inv *entity.Invitation) (*entity.Invitation, error) {
	args := m.Called(ctx, inv)
	saved, _ := args.Get(0).(*entity.Invitation)
	return saved, args.Error(1)
}

func (m *mockTeamRepository) GetInvitationByToken(ctx context.Context, token string) (*entity.Invitation, error) {
	args := m.Called(ctx, token)
	inv, _ := args.Get(0).(*entity.Invitation)
	return inv, args.Error(1)
}

func (m *mockTeamRepository) AcceptInvitation(ctx context.Context, inv *entity.Invitation, userID int64) (*entity.TeamMember, error) {
	args := m.Called(ctx, inv, userID)
	member, _ := args.Get(0).(*entity.TeamMember)
	return member, args.Error(1)
}

func (m *mockTeamRepository) RemoveMember(ctx context.Context, teamID, userID int64) error {
	return m.Called(ctx, teamID, userID).Error(0)
}
