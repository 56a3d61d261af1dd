//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/migrations"

	pgutil "github.com/vadimbarashkov/qrlink/pkg/postgres"
)

type RepositoryIntegrationTestSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *sqlx.DB
	users     *UserRepository
	links     *LinkRepository
	qrCodes   *QRCodeRepository
	abTests   *ABTestRepository
	teams     *TeamRepository
}

func (suite *RepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("qrlink"),
		tcpostgres.WithUsername("qrlink"),
		tcpostgres.WithPassword("qrlink"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %v", err)
	}
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		suite.T().Fatalf("Failed to get connection string: %v", err)
	}

	if err := pgutil.RunMigrations(migrations.FS, dsn); err != nil {
		suite.T().Fatalf("Failed to run migrations: %v", err)
	}

	suite.db, err = pgutil.New(ctx, dsn)
	if err != nil {
		suite.T().Fatalf("Failed to connect to database: %v", err)
	}

	suite.users = NewUserRepository(suite.db)
	suite.links = NewLinkRepository(suite.db)
	suite.qrCodes = NewQRCodeRepository(suite.db)
	suite.abTests = NewABTestRepository(suite.db)
	suite.teams = NewTeamRepository(suite.db)
}

func (suite *RepositoryIntegrationTestSuite) TearDownSuite() {
	suite.db.Close()
	if err := suite.container.Terminate(context.Background()); err != nil {
		suite.T().Fatalf("Failed to terminate postgres container: %v", err)
	}
}

func (suite *RepositoryIntegrationTestSuite) TearDownSubTest() {
	_, err := suite.db.Exec(`TRUNCATE users, short_links, link_clicks, qr_codes, scans, ab_tests, api_keys, teams, team_members, team_invitations RESTART IDENTITY CASCADE`)
	suite.NoError(err)
}

func (suite *RepositoryIntegrationTestSuite) TestLinkLifecycle() {
	ctx := context.Background()

	suite.Run("create, click, deactivate", func() {
		user, err := suite.users.Save(ctx, "jane@example.com", "Jane", "hash")
		suite.Require().NoError(err)

		_, err = suite.users.Save(ctx, "JANE@example.com", "Jane", "hash")
		suite.ErrorIs(err, entity.ErrEmailExists)

		maxClicks := int64(2)
		link, err := suite.links.Save(ctx, &entity.ShortLink{
			UserID:    user.ID,
			ShortCode: "abc123",
			TargetURL: "example.com",
			MaxClicks: &maxClicks,
		})
		suite.Require().NoError(err)
		suite.True(link.IsActive)

		_, err = suite.links.Save(ctx, &entity.ShortLink{UserID: user.ID, ShortCode: "abc123", TargetURL: "x.com"})
		suite.ErrorIs(err, entity.ErrShortCodeExists)

		suite.NoError(suite.links.SaveClick(ctx, link.ID, entity.Visit{IP: "1.1.1.1", Country: "FR"}))
		suite.NoError(suite.links.SaveClick(ctx, link.ID, entity.Visit{IP: "2.2.2.2"}))

		got, err := suite.links.GetByCode(ctx, "abc123")
		suite.Require().NoError(err)
		suite.Equal(int64(2), got.ClickCount)

		suite.NoError(suite.links.Deactivate(ctx, link.ID))
		suite.NoError(suite.links.Deactivate(ctx, link.ID))

		got, err = suite.links.GetByCode(ctx, "abc123")
		suite.Require().NoError(err)
		suite.False(got.IsActive)

		stats, err := suite.links.Stats(ctx, link.ID, time.Now().Add(-24*time.Hour))
		suite.Require().NoError(err)
		suite.Equal(int64(2), stats.Total)
		suite.Len(stats.ByDay, 1)
		suite.Len(stats.ByCountry, 2)
	})
}

func (suite *RepositoryIntegrationTestSuite) TestQRCodeWithABTest() {
	ctx := context.Background()

	suite.Run("variants round trip", func() {
		user, err := suite.users.Save(ctx, "jane@example.com", "Jane", "hash")
		suite.Require().NoError(err)

		qr, err := suite.qrCodes.Save(ctx, &entity.QRCode{
			ID:        "qr12345678",
			UserID:    user.ID,
			Name:      "Menu",
			TargetURL: "https://example.com",
			Style:     entity.QRStyle{ForegroundColor: "#000000", BackgroundColor: "#ffffff", DotStyle: "square", Template: "classic"},
		})
		suite.Require().NoError(err)

		variants := []entity.Variant{
			{ID: "a", URL: "https://a.example.com", Weight: 25},
			{ID: "b", URL: "https://b.example.com", Weight: 75},
		}

		_, err = suite.abTests.Upsert(ctx, qr.ID, variants, true)
		suite.Require().NoError(err)

		test, err := suite.abTests.Upsert(ctx, qr.ID, variants[:1], false)
		suite.Require().NoError(err)
		suite.Len(test.Variants, 1)
		suite.False(test.IsActive)

		variantID := "a"
		suite.NoError(suite.qrCodes.SaveScan(ctx, qr.ID, &variantID, entity.Visit{}))
		suite.NoError(suite.qrCodes.SaveScan(ctx, qr.ID, nil, entity.Visit{}))

		stats, err := suite.qrCodes.Stats(ctx, qr.ID, time.Now().Add(-time.Hour))
		suite.Require().NoError(err)
		suite.Equal(int64(2), stats.Total)
		suite.ElementsMatch([]entity.KeyCount{{Key: "a", Count: 1}, {Key: "", Count: 1}}, stats.ByVariant)

		monthly, err := suite.qrCodes.CountScansByUserSince(ctx, user.ID, time.Now().Add(-time.Hour))
		suite.NoError(err)
		suite.Equal(int64(2), monthly)
	})
}

func (suite *RepositoryIntegrationTestSuite) TestTeamInvitation() {
	ctx := context.Background()

	suite.Run("accept consumes the invitation", func() {
		owner, err := suite.users.Save(ctx, "owner@example.com", "Owner", "hash")
		suite.Require().NoError(err)
		invitee, err := suite.users.Save(ctx, "new@example.com", "New", "hash")
		suite.Require().NoError(err)

		team, err := suite.teams.Create(ctx, owner.ID, "Acme")
		suite.Require().NoError(err)

		inv, err := suite.teams.SaveInvitation(ctx, &entity.Invitation{
			TeamID:    team.ID,
			Email:     invitee.Email,
			Role:      entity.RoleMember,
			Token:     "token",
			ExpiresAt: time.Now().Add(time.Hour),
		})
		suite.Require().NoError(err)

		seats, err := suite.teams.CountSeats(ctx, team.ID, time.Now())
		suite.NoError(err)
		suite.Equal(int64(2), seats)

		_, err = suite.teams.AcceptInvitation(ctx, inv, invitee.ID)
		suite.Require().NoError(err)

		_, err = suite.teams.GetInvitationByToken(ctx, "token")
		suite.ErrorIs(err, entity.ErrNotFound)

		_, err = suite.teams.AcceptInvitation(ctx, inv, invitee.ID)
		suite.ErrorIs(err, entity.ErrAlreadyMember)

		members, err := suite.teams.ListMembers(ctx, team.ID)
		suite.NoError(err)
		suite.Len(members, 2)
	})
}

func TestRepositoryIntegration(t *testing.T) {
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}
