package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"agora-be/internal/dto"
	"agora-be/internal/model"
	"agora-be/internal/pkg/mailer"
	"agora-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) SendOTP(string, string) error { return nil }

func (m *recordingMailer) SendSessionResults(toEmail, _ string, _ []mailer.ResultLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

func (l *recordingLogger) Debug(string, string, map[string]interface{}) {}
func (l *recordingLogger) Warn(string, string, map[string]interface{})  {}
func (l *recordingLogger) Sync() error                                  { return nil }

func (l *recordingLogger) Info(_, message string, _ map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, message)
}

func (l *recordingLogger) Error(_, message string, _ map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}

func (l *recordingLogger) lastError() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.errors) == 0 {
		return "", false
	}
	return l.errors[len(l.errors)-1], true
}

// waitUntil polls the condition until it holds or the deadline passes.
func waitUntil(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func openConsumerDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	if migrate {
		require.NoError(t, db.AutoMigrate(&model.User{}, &model.SessionParticipant{}))
	}
	return db
}

func publishResult(t *testing.T, pubSub *gochannel.GoChannel, topic string, payload dto.SessionResultMessage) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), raw)))
}

func TestConsumerDeliversResultsToParticipants(t *testing.T) {
	db := openConsumerDB(t, true)
	sessionId := uuid.New()
	users := []model.User{
		{Id: uuid.New(), Email: "ada@example.com", FullName: "Ada", Role: "user", Status: "active"},
		{Id: uuid.New(), Email: "linus@example.com", FullName: "Linus", Role: "user", Status: "active"},
	}
	require.NoError(t, db.Create(&users).Error)
	for _, u := range users {
		require.NoError(t, db.Create(&model.SessionParticipant{
			Id:        uuid.New(),
			SessionId: sessionId,
			UserId:    u.Id,
		}).Error)
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	mail := &recordingMailer{}
	log := &recordingLogger{}
	svc := NewConsumerService(pubSub, "session.results", unitofwork.NewRepositoryFactory(db), mail, log)
	require.NoError(t, svc.Consume(context.Background()))

	publishResult(t, pubSub, "session.results", dto.SessionResultMessage{
		SessionId:    sessionId,
		SessionTitle: "Budget 2026",
		Winners:      []dto.SessionResultLine{{Title: "Option A", YesVotes: 5, NoVotes: 1}},
	})

	require.True(t, waitUntil(t, func() bool { return len(mail.recipients()) == 2 }),
		"expected a result mail per participant")
	assert.ElementsMatch(t, []string{"ada@example.com", "linus@example.com"}, mail.recipients())
	require.True(t, waitUntil(t, func() bool {
		log.mu.Lock()
		defer log.mu.Unlock()
		return len(log.infos) > 0 && log.infos[len(log.infos)-1] == "session results delivered"
	}))
}

// A message whose database reads keep failing must stop being redelivered
// after the attempt cap, and must not block messages behind it.
func TestConsumerDropsMessageAfterBoundedRetries(t *testing.T) {
	// No migration: every participant lookup fails.
	db := openConsumerDB(t, false)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	mail := &recordingMailer{}
	log := &recordingLogger{}
	svc := NewConsumerService(pubSub, "session.results", unitofwork.NewRepositoryFactory(db), mail, log)
	require.NoError(t, svc.Consume(context.Background()))

	publishResult(t, pubSub, "session.results", dto.SessionResultMessage{
		SessionId:    uuid.New(),
		SessionTitle: "Budget 2026",
	})

	require.True(t, waitUntil(t, func() bool {
		msg, ok := log.lastError()
		return ok && msg == "dropping result message: failed to load participants"
	}), "expected the poisoned message to be dropped, not redelivered forever")
	assert.Empty(t, mail.recipients())

	inner := svc.(*consumerService)
	assert.Empty(t, inner.attempts, "attempt tracking should be cleared after the drop")
}
