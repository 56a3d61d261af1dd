package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/internal/usecase"
)

type mockRedirectUseCase struct{ mock.Mock }

func (m *mockRedirectUseCase) ResolveQRCode(ctx context.Context, id string, visit entity.Visit, unlocked bool) (*usecase.Resolution, error) {
	args := m.Called(ctx, id, visit, unlocked)
	res, _ := args.Get(0).(*usecase.Resolution)
	return res, args.Error(1)
}

func (m *mockRedirectUseCase) ResolveShortLink(ctx context.Context, code string, visit entity.Visit, unlocked bool) (*usecase.Resolution, error) {
	args := m.Called(ctx, code, visit, unlocked)
	res, _ := args.Get(0).(*usecase.Resolution)
	return res, args.Error(1)
}

type mockUnlockUseCase struct{ mock.Mock }

func (m *mockUnlockUseCase) UnlockQRCode(ctx context.Context, id, password, clientIP string) (*usecase.Unlock, error) {
	args := m.Called(ctx, id, password, clientIP)
	unlock, _ := args.Get(0).(*usecase.Unlock)
	return unlock, args.Error(1)
}

func (m *mockUnlockUseCase) VerifyShortLink(ctx context.Context, code, password, clientIP string) (*usecase.Unlock, error) {
	args := m.Called(ctx, code, password, clientIP)
	unlock, _ := args.Get(0).(*usecase.Unlock)
	return unlock, args.Error(1)
}

type mockAuthUseCase struct{ mock.Mock }

func (m *mockAuthUseCase) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *mockAuthUseCase) AuthenticateAPIKey(ctx context.Context, rawKey string) (*entity.User, error) {
	args := m.Called(ctx, rawKey)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *mockAuthUseCase) Register(ctx context.Context, email, password, name string) (*entity.User, string, error) {
	args := m.Called(ctx, email, password, name)
	user, _ := args.Get(0).(*entity.User)
	return user, args.String(1), args.Error(2)
}

func (m *mockAuthUseCase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*entity.User)
	return user, args.String(1), args.Error(2)
}

func (m *mockAuthUseCase) Profile(ctx context.Context, user *entity.User) (*usecase.Profile, error) {
	args := m.Called(ctx, user)
	profile, _ := args.Get(0).(*usecase.Profile)
	return profile, args.Error(1)
}

type mockAPIKeyUseCase struct{ mock.Mock }

func (m *mockAPIKeyUseCase) Create(ctx context.Context, user *entity.User, name string) (*entity.APIKey, string, error) {
	args := m.Called(ctx, user, name)
	key, _ := args.Get(0).(*entity.APIKey)
	return key, args.String(1), args.Error(2)
}

func (m *mockAPIKeyUseCase) List(ctx context.Context, user *entity.User) ([]entity.APIKey, error) {
	args := m.Called(ctx, user)
	keys, _ := args.Get(0).([]entity.APIKey)
	return keys, args.Error(1)
}

func (m *mockAPIKeyUseCase) Delete(ctx context.Context, user *entity.User, id int64) error {
	return m.Called(ctx, user, id).Error(0)
}

type mockLinkUseCase struct{ mock.Mock }

func (m *mockLinkUseCase) Create(ctx context.Context, user *entity.User, in usecase.CreateLinkInput) (*entity.ShortLink, error) {
	args := m.Called(ctx, user, in)
	link, _ := args.Get(0).(*entity.ShortLink)
	return link, args.Error(1)
}

func (m *mockLinkUseCase) List(ctx context.Context, user *entity.User, page usecase.Page) ([]entity.ShortLink, int64, error) {
	args := m.Called(ctx, user, page)
	links, _ := args.Get(0).([]entity.ShortLink)
	return links, args.Get(1).(int64), args.Error(2)
}

func (m *mockLinkUseCase) Get(ctx context.Context, user *entity.User, code string) (*entity.ShortLink, error) {
	args := m.Called(ctx, user, code)
	link, _ := args.Get(0).(*entity.ShortLink)
	return link, args.Error(1)
}

func (m *mockLinkUseCase) Update(ctx context.Context, user *entity.User, code string, in usecase.UpdateLinkInput) (*entity.ShortLink, error) {
	args := m.Called(ctx, user, code, in)
	link, _ := args.Get(0).(*entity.ShortLink)
	return link, args.Error(1)
}

func (m *mockLinkUseCase) Delete(ctx context.Context, user *entity.User, code string) error {
	return m.Called(ctx, user, code).Error(0)
}

func (m *mockLinkUseCase) Stats(ctx context.Context, user *entity.User, code string, days int) (*entity.VisitStats, error) {
	args := m.Called(ctx, user, code, days)
	stats, _ := args.Get(0).(*entity.VisitStats)
	return stats, args.Error(1)
}

type mockQRCodeUseCase struct{ mock.Mock }

func (m *mockQRCodeUseCase) Create(ctx context.Context, user *entity.User, in usecase.CreateQRCodeInput) (*entity.QRCode, error) {
	args := m.Called(ctx, user, in)
	qr, _ := args.Get(0).(*entity.QRCode)
	return qr, args.Error(1)
}

func (m *mockQRCodeUseCase) List(ctx context.Context, user *entity.User, page usecase.Page) ([]entity.QRCode, int64, error) {
	args := m.Called(ctx, user, page)
	qrs, _ := args.Get(0).([]entity.QRCode)
	return qrs, args.Get(1).(int64), args.Error(2)
}

func (m *mockQRCodeUseCase) Get(ctx context.Context, user *entity.User, id string) (*entity.QRCode, error) {
	args := m.Called(ctx, user, id)
	qr, _ := args.Get(0).(*entity.QRCode)
	return qr, args.Error(1)
}

func (m *mockQRCodeUseCase) Update(ctx context.Context, user *entity.User, id string, in usecase.UpdateQRCodeInput) (*entity.QRCode, error) {
	args := m.Called(ctx, user, id, in)
	qr, _ := args.Get(0).(*entity.QRCode)
	return qr, args.Error(1)
}

func (m *mockQRCodeUseCase) Delete(ctx context.Context, user *entity.User, id string) error {
	return m.Called(ctx, user, id).Error(0)
}

func (m *mockQRCodeUseCase) Stats(ctx context.Context, user *entity.User, id string, days int) (*entity.VisitStats, error) {
	args := m.Called(ctx, user, id, days)
	stats, _ := args.Get(0).(*entity.VisitStats)
	return stats, args.Error(1)
}

func (m *mockQRCodeUseCase) GetABTest(ctx context.Context, user *entity.User, id string) (*entity.ABTest, error) {
	args := m.Called(ctx, user, id)
	test, _ := args.Get(0).(*entity.ABTest)
	return test, args.Error(1)
}

func (m *mockQRCodeUseCase) SetABTest(ctx context.Context, user *entity.User, id string, variants []entity.Variant, isActive bool) (*entity.ABTest, error) {
	args := m.Called(ctx, user, id, variants, isActive)
	test, _ := args.Get(0).(*entity.ABTest)
	return test, args.Error(1)
}

func (m *mockQRCodeUseCase) DeleteABTest(ctx context.Context, user *entity.User, id string) error {
	return m.Called(ctx, user, id).Error(0)
}

type mockTeamUseCase struct{ mock.Mock }

func (m *mockTeamUseCase) Create(ctx context.Context, user *entity.User, name string) (*entity.Team, error) {
	args := m.Called(ctx, user, name)
	team, _ := args.Get(0).(*entity.Team)
	return team, args.Error(1)
}

func (m *mockTeamUseCase) Members(ctx context.Context, user *entity.User, teamID int64) ([]entity.TeamMember, error) {
	args := m.Called(ctx, user, teamID)
	members, _ := args.Get(0).([]entity.TeamMember)
	return members, args.Error(1)
}

func (m *mockTeamUseCase) Invite(ctx context.Context, user *entity.User, teamID int64, email, role string) (*entity.Invitation, error) {
	args := m.Called(ctx, user, teamID, email, role)
	inv, _ := args.Get(0).(*entity.Invitation)
	return inv, args.Error(1)
}

func (m *mockTeamUseCase) Accept(ctx context.Context, user *entity.User, token string) (*entity.TeamMember, error) {
	args := m.Called(ctx, user, token)
	member, _ := args.Get(0).(*entity.TeamMember)
	return member, args.Error(1)
}

func (m *mockTeamUseCase) RemoveMember(ctx context.Context, user *entity.User, teamID, memberID int64) error {
	return m.Called(ctx, user, teamID, memberID).Error(0)
}
