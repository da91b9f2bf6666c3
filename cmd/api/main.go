package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/platform/blob"
	"github.com/spec-kit/support-desk/internal/platform/discord"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	panelRepo := repository.NewPanelRepository(pool)
	statusRepo := repository.NewStatusRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	claimRepo := repository.NewClaimRepository(pool)
	transcriptRepo := repository.NewTranscriptRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	payRepo := repository.NewPayAdjustmentRepository(pool)

	notifier := discord.NewLogNotifier(logger)

	blobStore, err := blob.NewFSStore(cfg.Blob.Root)
	if err != nil {
		logger.Fatal("failed to init blob storage", zap.Error(err))
	}

	bus := events.NewBus()
	bus.OnDrop(func(events.Event) { metrics.EventsDropped.Inc() })
	bridge := events.NewRedisBridge(bus, redis.Client, cfg.Redis.EventChannel, logger)
	go bridge.Run(ctx)

	audit := service.NewAuditRecorder(auditRepo, logger, metrics)
	transcripts := service.NewTranscriptService(service.TranscriptDependencies{
		TranscriptRepo: transcriptRepo,
		TicketRepo:     ticketRepo,
		MessageRepo:    messageRepo,
		AttachmentRepo: attachmentRepo,
		ClaimRepo:      claimRepo,
		AuditRepo:      auditRepo,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		MessageRepo:    messageRepo,
		AttachmentRepo: attachmentRepo,
		PanelRepo:      panelRepo,
		StatusRepo:     statusRepo,
		StaffRepo:      staffRepo,
		ClaimRepo:      claimRepo,
		Transcripts:    transcripts,
		Audit:          audit,
		Broadcaster:    bridge,
		Discord:        notifier,
		Logger:         logger,
		Metrics:        metrics,
	})
	directory := service.NewDirectoryService(service.DirectoryDependencies{
		PanelRepo:        panelRepo,
		StatusRepo:       statusRepo,
		RoleRepo:         roleRepo,
		StaffRepo:        staffRepo,
		UserRepo:         userRepo,
		TicketRepo:       ticketRepo,
		NotificationRepo: notificationRepo,
		Audit:            audit,
	})
	pay := service.NewPayService(service.PayDependencies{
		PayRepo:          payRepo,
		ClaimRepo:        claimRepo,
		MessageRepo:      messageRepo,
		StaffRepo:        staffRepo,
		NotificationRepo: notificationRepo,
		Audit:            audit,
	})
	notifications := service.NewNotificationService(notificationRepo)

	codec := session.NewCodec(cfg.Session.Secret, cfg.Session.MaxAge())
	identity := service.NewIdentityService(service.IdentityDependencies{
		UserRepo:  userRepo,
		StaffRepo: staffRepo,
		Codec:     codec,
		Discord:   notifier,
		Logger:    logger,
	})
	sessionMiddleware := auth.NewSessionMiddleware(codec, cfg.Session.CookieName, userRepo, staffRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:        handlers.NewUsersHandler(identity, cfg.Session),
		Tickets:      handlers.NewTicketsHandler(tickets),
		StaffTickets: handlers.NewStaffTicketsHandler(tickets, transcripts),
		Staff:        handlers.NewStaffHandler(pay, notifications),
		Admin:        handlers.NewAdminHandler(directory),
		Events:       handlers.NewEventsHandler(bus, logger),
		Payhip:       handlers.NewPayhipHandler(cfg.Payhip.APIKey, notifier, logger),
		Attachments:  handlers.NewAttachmentsHandler(blobStore),
		Session:      sessionMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
