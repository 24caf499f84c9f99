package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"agora-be/internal/entity"
	"agora-be/internal/repository/specification"
	"agora-be/internal/repository/unitofwork"
	"agora-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.SessionRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Session Repository", func(t *testing.T) {
		count, err := uow.SessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Session count: %d", count)
	})

	t.Run("Check Transactional Session Setup", func(t *testing.T) {
		userId := uuid.New()
		user := &entity.User{
			Id:       userId,
			Email:    "test-integration-" + uuid.New().String() + "@example.com",
			FullName: "Integration Test User",
			Role:     "admin",
			Status:   "active",
		}

		err := uow.UserRepository().Create(context.Background(), user)
		assert.NoError(t, err)

		ctx := context.Background()
		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		sessionId := uuid.New()
		session := &entity.Session{
			Id:        sessionId,
			Title:     "Integration Test Session",
			Phase:     entity.SessionPhase1,
			Status:    entity.SessionStatusActive,
			Variant:   entity.SessionVariantStandard,
			CreatedBy: userId,
		}
		err = uow.SessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		proposal := &entity.Proposal{
			Id:        uuid.New(),
			SessionId: sessionId,
			UserId:    userId,
			Title:     "Integration Test Proposal",
			Content:   "Created inside a transaction, rolled back after.",
			Status:    entity.ProposalStatusActive,
		}
		err = uow.ProposalRepository().Create(ctx, proposal)
		assert.NoError(t, err)

		err = uow.SessionRepository().AddParticipant(ctx, &entity.SessionParticipant{
			Id:        uuid.New(),
			SessionId: sessionId,
			UserId:    userId,
		})
		assert.NoError(t, err)

		found, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Equal(t, entity.SessionPhase1, found.Phase)
		}
	})
}
