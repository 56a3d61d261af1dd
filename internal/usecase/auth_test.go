package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/vadimbarashkov/qrlink/internal/auth"
	"github.com/vadimbarashkov/qrlink/internal/entity"
)

type AuthUseCaseTestSuite struct {
	suite.Suite
	ctx            context.Context
	now            time.Time
	errUnknown     error
	hasher         *auth.PasswordHasher
	tokens         *auth.TokenManager
	userRepoMock   *mockUserRepository
	apiKeyRepoMock *mockAPIKeyRepository
	linkRepoMock   *mockLinkRepository
	qrCodeRepoMock *mockQRCodeRepository
	uc             *AuthUseCase
}

func (suite *AuthUseCaseTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)
	suite.errUnknown = errors.New("unknown error")
	suite.hasher = auth.NewPasswordHasher(bcrypt.MinCost)
	suite.tokens = auth.NewTokenManager("test-secret", time.Hour)
}

func (suite *AuthUseCaseTestSuite) SetupSubTest() {
	suite.userRepoMock = new(mockUserRepository)
	suite.apiKeyRepoMock = new(mockAPIKeyRepository)
	suite.linkRepoMock = new(mockLinkRepository)
	suite.qrCodeRepoMock = new(mockQRCodeRepository)

	logger := httplog.NewLogger("", httplog.Options{Writer: io.Discard})

	suite.uc = NewAuthUseCase(
		suite.userRepoMock,
		suite.apiKeyRepoMock,
		suite.linkRepoMock,
		suite.qrCodeRepoMock,
		suite.hasher,
		suite.tokens,
		logger.Logger,
	)
	suite.uc.now = func() time.Time { return suite.now }
}

func (suite *AuthUseCaseTestSuite) TearDownSubTest() {
	suite.userRepoMock.AssertExpectations(suite.T())
	suite.apiKeyRepoMock.AssertExpectations(suite.T())
	suite.linkRepoMock.AssertExpectations(suite.T())
	suite.qrCodeRepoMock.AssertExpectations(suite.T())
}

func (suite *AuthUseCaseTestSuite) TestRegister() {
	suite.Run("email exists", func() {
		suite.userRepoMock.On("Save", suite.ctx, "jane@example.com", "Jane", mock.Anything).Once().Return(nil, entity.ErrEmailExists)

		_, _, err := suite.uc.Register(suite.ctx, " jane@example.com ", "password1", "Jane")

		suite.ErrorIs(err, entity.ErrEmailExists)
	})

	suite.Run("success", func() {
		suite.userRepoMock.On("Save", suite.ctx, "jane@example.com", "Jane", mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("password1")) == nil
		})).Once().Return(&entity.User{ID: 10, Email: "jane@example.com", Plan: entity.PlanFree}, nil)

		user, token, err := suite.uc.Register(suite.ctx, "jane@example.com", "password1", "Jane")

		suite.Require().NoError(err)
		suite.Equal(int64(10), user.ID)

		userID, err := suite.tokens.Validate(token)
		suite.NoError(err)
		suite.Equal(int64(10), userID)
	})
}

func (suite *AuthUseCaseTestSuite) TestLogin() {
	hash, err := suite.hasher.Hash("password1")
	suite.Require().NoError(err)

	suite.Run("unknown email", func() {
		suite.userRepoMock.On("GetByEmail", suite.ctx, "jane@example.com").Once().Return(nil, entity.ErrNotFound)

		_, _, err := suite.uc.Login(suite.ctx, "jane@example.com", "password1")

		suite.ErrorIs(err, entity.ErrInvalidCredentials)
	})

	suite.Run("wrong password", func() {
		suite.userRepoMock.On("GetByEmail", suite.ctx, "jane@example.com").Once().Return(&entity.User{ID: 10, PasswordHash: hash}, nil)

		_, _, err := suite.uc.Login(suite.ctx, "jane@example.com", "password2")

		suite.ErrorIs(err, entity.ErrInvalidCredentials)
	})

	suite.Run("success", func() {
		suite.userRepoMock.On("GetByEmail", suite.ctx, "jane@example.com").Once().Return(&entity.User{ID: 10, PasswordHash: hash}, nil)

		user, token, err := suite.uc.Login(suite.ctx, "jane@example.com", "password1")

		suite.NoError(err)
		suite.Equal(int64(10), user.ID)
		suite.NotEmpty(token)
	})
}

func (suite *AuthUseCaseTestSuite) TestAuthenticate() {
	suite.Run("invalid token", func() {
		_, err := suite.uc.Authenticate(suite.ctx, "garbage")

		suite.ErrorIs(err, entity.ErrUnauthorized)
	})

	suite.Run("deleted user", func() {
		token, err := suite.tokens.Generate(10)
		suite.Require().NoError(err)
		suite.userRepoMock.On("GetByID", suite.ctx, int64(10)).Once().Return(nil, entity.ErrNotFound)

		_, err = suite.uc.Authenticate(suite.ctx, token)

		suite.ErrorIs(err, entity.ErrUnauthorized)
	})

	suite.Run("success", func() {
		token, err := suite.tokens.Generate(10)
		suite.Require().NoError(err)
		suite.userRepoMock.On("GetByID", suite.ctx, int64(10)).Once().Return(&entity.User{ID: 10}, nil)

		user, err := suite.uc.Authenticate(suite.ctx, token)

		suite.NoError(err)
		suite.Equal(int64(10), user.ID)
	})
}

func (suite *AuthUseCaseTestSuite) TestAuthenticateAPIKey() {
	const rawKey = "qrk_0123456789abcdefghijklmnopqrstuv"

	suite.Run("malformed key", func() {
		_, err := suite.uc.AuthenticateAPIKey(suite.ctx, "nope")

		suite.ErrorIs(err, entity.ErrUnauthorized)
	})

	suite.Run("unknown key", func() {
		suite.apiKeyRepoMock.On("GetByHash", suite.ctx, auth.HashAPIKey(rawKey)).Once().Return(nil, entity.ErrNotFound)

		_, err := suite.uc.AuthenticateAPIKey(suite.ctx, rawKey)

		suite.ErrorIs(err, entity.ErrUnauthorized)
	})

	suite.Run("plan lost api access", func() {
		suite.apiKeyRepoMock.On("GetByHash", suite.ctx, auth.HashAPIKey(rawKey)).Once().Return(&entity.APIKey{ID: 3, UserID: 10}, nil)
		suite.userRepoMock.On("GetByID", suite.ctx, int64(10)).Once().Return(&entity.User{ID: 10, Plan: entity.PlanFree}, nil)

		_, err := suite.uc.AuthenticateAPIKey(suite.ctx, rawKey)

		suite.ErrorIs(err, entity.ErrUnauthorized)
	})

	suite.Run("success despite touch failure", func() {
		suite.apiKeyRepoMock.On("GetByHash", suite.ctx, auth.HashAPIKey(rawKey)).Once().Return(&entity.APIKey{ID: 3, UserID: 10}, nil)
		suite.userRepoMock.On("GetByID", suite.ctx, int64(10)).Once().Return(&entity.User{ID: 10, Plan: entity.PlanPro}, nil)
		suite.apiKeyRepoMock.On("Touch", suite.ctx, int64(3), suite.now).Once().Return(suite.errUnknown)

		user, err := suite.uc.AuthenticateAPIKey(suite.ctx, rawKey)

		suite.NoError(err)
		suite.Equal(entity.PlanPro, user.Plan)
	})
}

func (suite *AuthUseCaseTestSuite) TestProfile() {
	suite.Run("success", func() {
		user := &entity.User{ID: 10, Plan: entity.PlanPro}
		suite.qrCodeRepoMock.On("CountByUser", suite.ctx, int64(10)).Once().Return(int64(4), nil)
		suite.linkRepoMock.On("CountByUser", suite.ctx, int64(10)).Once().Return(int64(9), nil)
		suite.qrCodeRepoMock.On("CountScansByUserSince", suite.ctx, int64(10), time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)).
			Once().
			Return(int64(120), nil)

		profile, err := suite.uc.Profile(suite.ctx, user)

		suite.NoError(err)
		suite.Equal(100, profile.Limits.MaxQRCodes)
		suite.Equal(Usage{QRCodes: 4, ShortLinks: 9, ScansThisMonth: 120}, profile.Usage)
	})

	suite.Run("count error", func() {
		suite.qrCodeRepoMock.On("CountByUser", suite.ctx, int64(10)).Once().Return(int64(0), suite.errUnknown)

		_, err := suite.uc.Profile(suite.ctx, &entity.User{ID: 10})

		suite.ErrorIs(err, suite.errUnknown)
	})
}

func TestAuthUseCase(t *testing.T) {
	suite.Run(t, new(AuthUseCaseTestSuite))
}

type APIKeyUseCaseTestSuite struct {
	suite.Suite
	ctx            context.Context
	apiKeyRepoMock *mockAPIKeyRepository
	uc             *APIKeyUseCase
}

func (suite *APIKeyUseCaseTestSuite) SetupSuite() {
	suite.ctx = context.Background()
}

func (suite *APIKeyUseCaseTestSuite) SetupSubTest() {
	suite.apiKeyRepoMock = new(mockAPIKeyRepository)
	suite.uc = NewAPIKeyUseCase(suite.apiKeyRepoMock)
}

func (suite *APIKeyUseCaseTestSuite) TearDownSubTest() {
	suite.apiKeyRepoMock.AssertExpectations(suite.T())
}

func (suite *APIKeyUseCaseTestSuite) TestCreate() {
	suite.Run("free plan", func() {
		_, _, err := suite.uc.Create(suite.ctx, &entity.User{ID: 1, Plan: entity.PlanFree}, "ci")

		suite.ErrorIs(err, entity.ErrFeatureNotAvailable)
	})

	suite.Run("success", func() {
		var savedHash string

		suite.apiKeyRepoMock.On("Save", suite.ctx, int64(2), "ci", mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Once().
			Run(func(args mock.Arguments) { savedHash = args.String(4) }).
			Return(&entity.APIKey{ID: 1, UserID: 2, Name: "ci"}, nil)

		key, raw, err := suite.uc.Create(suite.ctx, &entity.User{ID: 2, Plan: entity.PlanPro}, "ci")

		suite.NoError(err)
		suite.Equal(int64(1), key.ID)
		suite.Equal(auth.HashAPIKey(raw), savedHash)
	})
}

func (suite *APIKeyUseCaseTestSuite) TestDelete() {
	suite.Run("not found", func() {
		suite.apiKeyRepoMock.On("Delete", suite.ctx, int64(5), int64(2)).Once().Return(entity.ErrNotFound)

		err := suite.uc.Delete(suite.ctx, &entity.User{ID: 2}, 5)

		suite.ErrorIs(err, entity.ErrNotFound)
	})
}

func TestAPIKeyUseCase(t *testing.T) {
	suite.Run(t, new(APIKeyUseCaseTestSuite))
}
