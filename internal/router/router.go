package router

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/casbin/casbin/v2"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"github.com/anonto42/campus-notices/backend/internal/handlers"
	"github.com/anonto42/campus-notices/backend/internal/middleware"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/repositories"
	"github.com/anonto42/campus-notices/backend/internal/services"
	"github.com/anonto42/campus-notices/backend/internal/validators"
	"github.com/anonto42/campus-notices/backend/pkg/config"
	"github.com/anonto42/campus-notices/backend/pkg/firebase"
	"github.com/anonto42/campus-notices/backend/pkg/logger"
)

// Module wires configuration, stores, services and the HTTP server.
var Module = fx.Module("campus-notices",
	fx.Provide(
		config.Load,
		newLogger,
		config.NewDB,
		firebase.NewApp,
		newNoticeRepository,
		newUserRepository,
		newNotificationRepository,
		newVerifier,
		middleware.NewEnforcer,
		newNoticeService,
		handlers.NewNoticeHandler,
		handlers.NewEngagementHandler,
		handlers.NewAttachmentHandler,
		handlers.NewNotificationHandler,
		NewEchoServer,
	),
	fx.Invoke(migrate, RegisterRoutes),
)

func newLogger(lc fx.Lifecycle, cfg *config.Config) logger.Logger {
	l := logger.NewRollbarLogger(log.New(os.Stdout, "", log.LstdFlags), cfg.RollbarToken, cfg.Env)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			l.Close()
			return nil
		},
	})
	return l
}

func newNoticeRepository(cfg *config.Config, db *config.DB, log logger.Logger) repositories.NoticeRepository {
	if cfg.NoticeStore == config.StoreMemory {
		log.Warn("Notices are kept in memory and will not survive a restart.")
		return repositories.NewMemoryNoticeRepository()
	}
	return repositories.NewMongoNoticeRepository(db.Mongo.Database(cfg.MongoDatabase))
}

func newUserRepository(db *config.DB) repositories.UserRepository {
	return repositories.NewPostgresUserRepository(db.Postgres)
}

func newNotificationRepository(db *config.DB) repositories.NotificationRepository {
	return repositories.NewPostgresNotificationRepository(db.Postgres)
}

// newVerifier accepts local JWTs and, when firebase is configured, firebase ID tokens.
func newVerifier(cfg *config.Config, fb *firebase.App, users repositories.UserRepository) middleware.Verifier {
	var vs middleware.Verifiers
	if cfg.JWTSecret != "" {
		vs = append(vs, middleware.NewJWTVerifier(cfg.JWTSecret))
	}
	if fb != nil && fb.AuthClient != nil {
		vs = append(vs, middleware.NewFirebaseVerifier(fb.AuthClient, users))
	}
	return vs
}

func newNoticeService(
	cfg *config.Config,
	notices repositories.NoticeRepository,
	users repositories.UserRepository,
	notifications repositories.NotificationRepository,
	fb *firebase.App,
	log logger.Logger,
) *services.NoticeService {
	var objects services.ObjectStore
	if fb != nil && fb.Storage != nil {
		objects = fb.Storage
	} else {
		log.Info("No storage bucket configured, attachment uploads are disabled.")
	}
	return services.NewNoticeService(notices, users, notifications, objects, log, services.Options{
		HistoryLimit:   cfg.RevisionHistoryLimit,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
}

func NewEchoServer(lc fx.Lifecycle, cfg *config.Config, log logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(log)
	config.SetupMiddleware(e, cfg, log)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("Server running on port " + cfg.Port)
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("Failed to start the server", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down the server ...")
			ctx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
			defer cancel()
			return e.Shutdown(ctx)
		},
	})
	return e
}

func migrate(lc fx.Lifecycle, db *config.DB, notices repositories.NoticeRepository, log logger.Logger) error {
	if err := db.Postgres.AutoMigrate(&models.User{}, &models.Notification{}); err != nil {
		return errors.Wrap(err, "failed to auto migrate models")
	}
	log.Info("PostgreSQL auto-migrations completed.")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := notices.EnsureIndexes(ctx); err != nil {
				return errors.Wrap(err, "failed to create notice indexes")
			}
			return nil
		},
	})
	return nil
}

// RegisterRoutes configures all application routes
func RegisterRoutes(
	e *echo.Echo,
	verifier middleware.Verifier,
	enforcer *casbin.Enforcer,
	notices *handlers.NoticeHandler,
	engagement *handlers.EngagementHandler,
	attachments *handlers.AttachmentHandler,
	notifications *handlers.NotificationHandler,
) {
	e.GET("/health", handlers.HealthCheck)

	guards := handlers.Guards{
		Required: middleware.Authenticate(verifier, false),
		Optional: middleware.Authenticate(verifier, true),
		Bulk:     middleware.Authorize(enforcer),
	}
	api := e.Group("/api/v1")
	notices.RegisterNoticeRoutes(api, guards)
	engagement.RegisterEngagementRoutes(api, guards)
	attachments.RegisterAttachmentRoutes(api, guards)
	notifications.RegisterNotificationRoutes(api, guards)
}
