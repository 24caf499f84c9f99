package bootstrap

import (
	"context"
	"log"

	"agora-be/internal/config"
	"agora-be/internal/controller"
	"agora-be/internal/handler"
	"agora-be/internal/pkg/logger"
	"agora-be/internal/pkg/mailer"
	"agora-be/internal/repository/implementation"
	"agora-be/internal/repository/unitofwork"
	"agora-be/internal/service"
	"agora-be/internal/websocket"
	"agora-be/pkg/lifecycle"

	pktNats "agora-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// resultsTopic carries session result messages from the closer to the email
// consumer over the in-process watermill channel.
const resultsTopic = "session_results"

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	SessionController  controller.ISessionController
	ProposalController controller.IProposalController
	VoteController     controller.IVoteController
	AdminController    controller.IAdminController

	// Background services, exposed for main.go to run.
	ConsumerService service.IConsumerService

	// WebSockets & notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// In-process event bus for the results mail pipeline.
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	var eventPublisher lifecycle.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Repositories shared by the lifecycle engine. Engine operations are
	// single conditional writes, so they run on the base connection rather
	// than through a unit of work.
	sessionRepo := implementation.NewSessionRepository(db)
	proposalRepo := implementation.NewProposalRepository(db)
	ratingRepo := implementation.NewRatingRepository(db)
	voteRepo := implementation.NewVoteRepository(db)
	topProposalRepo := implementation.NewTopProposalRepository(db)

	// Lifecycle engine
	tracker := lifecycle.NewParticipationTracker(
		proposalRepo,
		ratingRepo,
		voteRepo,
		sessionRepo,
		cfg.Session.Phase2TimeLimit,
	)
	transitionScheduler := lifecycle.NewTransitionScheduler(sessionRepo, tracker, eventPublisher, sysLogger)
	terminationScheduler := lifecycle.NewTerminationScheduler(sessionRepo, tracker, eventPublisher, sysLogger)
	transitionExecutor := lifecycle.NewPhaseTransitionExecutor(sessionRepo, proposalRepo, eventPublisher, sysLogger)

	publisherService := service.NewPublisherService(pubSub, resultsTopic)
	resultNotifier := service.NewResultNotifier(publisherService)

	sessionCloser := lifecycle.NewSessionCloser(
		sessionRepo,
		proposalRepo,
		voteRepo,
		topProposalRepo,
		eventPublisher,
		resultNotifier,
		sysLogger,
	)
	terminationExecutor := lifecycle.NewTerminationExecutor(sessionRepo, sessionCloser, sysLogger)

	// Services
	consumerService := service.NewConsumerService(
		pubSub,
		resultsTopic,
		uowFactory,
		emailService,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, emailService)
	sessionService := service.NewSessionService(
		uowFactory,
		tracker,
		transitionScheduler,
		terminationScheduler,
		transitionExecutor,
		terminationExecutor,
		sessionCloser,
		sysLogger,
	)
	proposalService := service.NewProposalService(uowFactory, transitionScheduler, sysLogger)
	voteService := service.NewVoteService(uowFactory, terminationScheduler, sysLogger)

	// Notification domain
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, wsLogger)

	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	return &Container{
		AuthController:     controller.NewAuthController(authService),
		SessionController:  controller.NewSessionController(sessionService),
		ProposalController: controller.NewProposalController(proposalService),
		VoteController:     controller.NewVoteController(voteService),
		AdminController:    controller.NewAdminController(sessionService),

		ConsumerService: consumerService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}
