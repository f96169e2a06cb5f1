package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/makeasinger/studio/internal/archive"
	"github.com/makeasinger/studio/internal/broadcast"
	"github.com/makeasinger/studio/internal/client"
	"github.com/makeasinger/studio/internal/config"
	"github.com/makeasinger/studio/internal/handler"
	"github.com/makeasinger/studio/internal/middleware"
	"github.com/makeasinger/studio/internal/service"
	"github.com/makeasinger/studio/internal/store"
	"github.com/makeasinger/studio/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and job poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), ctx.cfg, ctx.logger)
		},
	}
}

// pollBackend is the scheduler plus whatever must run and stop alongside it
type pollBackend struct {
	scheduler worker.Scheduler
	start     func() error
	stop      func()
}

func newPollBackend(cfg *config.Config, log *slog.Logger) *pollBackend {
	if cfg.Poller.Backend != config.PollerBackendAsynq {
		sched := worker.NewLocalScheduler()
		return &pollBackend{
			scheduler: sched,
			start:     func() error { return nil },
			stop:      sched.Stop,
		}
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	sched := worker.NewAsynqScheduler(asynqClient)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			worker.PollQueue: 1,
		},
		ShutdownTimeout: shutdownTimeout,
	})

	return &pollBackend{
		scheduler: sched,
		start: func() error {
			mux := asynq.NewServeMux()
			mux.HandleFunc(worker.TaskTypePollTick, sched.ProcessTask)
			log.Info("asynq poll worker starting", slog.String("queue", worker.PollQueue))
			return srv.Start(mux)
		},
		stop: func() {
			srv.Shutdown()
			if err := asynqClient.Close(); err != nil {
				log.Warn("asynq client close failed", slog.Any("error", err))
			}
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// Only one process may poll a sqlite database
	lock, err := store.LockInstance(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("failed to release instance lock", slog.Any("error", err))
		}
	}()

	// Database
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return err
	}

	// Redis is optional; it backs rate limiting and the asynq poller
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis not available", slog.Any("error", err))
		}
	}

	sunoClient := client.NewSunoClient(&cfg.Suno, log)
	if !sunoClient.IsConfigured() {
		log.Warn("suno API key not configured; new jobs will fail to start")
	}

	validate := validator.New()
	hub := broadcast.NewHub(log)

	// Poller
	backend := newPollBackend(cfg, log)
	poller := worker.NewPoller(st, sunoClient, hub, backend.scheduler, cfg.Poller, log)

	// Completed audio is copied to object storage when a bucket is configured.
	// The listener is attached before any tick can run.
	var archiver *archive.Archiver
	if cfg.Storage.Enabled {
		storage, err := client.NewS3Storage(ctx, &cfg.Storage)
		if err != nil {
			return err
		}
		archiver = archive.New(st, storage, int64(cfg.Storage.MaxObjectMB)<<20, log)
		poller.SetCompletionListener(archiver)
		log.Info("audio archiving enabled", slog.String("bucket", cfg.Storage.Bucket))
	}

	if err := backend.start(); err != nil {
		return fmt.Errorf("failed to start poll worker: %w", err)
	}
	defer backend.stop()

	// Resume jobs left in flight by the previous process
	if _, err := worker.NewRecovery(st, poller, log).Run(ctx); err != nil {
		log.Error("job recovery failed", slog.Any("error", err))
	}

	// Services
	generationService := service.NewGenerationService(st, sunoClient, hub, poller, cfg.Suno.Model, log)
	if archiver != nil {
		generationService.SetArchive(archiver)
	}
	stemService := service.NewStemService(st, sunoClient, hub, poller, log)
	projectService := service.NewProjectService(st)
	annotationService := service.NewAnnotationService(st, hub)

	// Handlers
	handlers := &handler.Handlers{
		Projects:    handler.NewProjectHandler(projectService, validate),
		Generations: handler.NewGenerationHandler(generationService, validate),
		Stems:       handler.NewStemHandler(stemService, validate),
		Annotations: handler.NewAnnotationHandler(annotationService, validate),
		Events:      handler.NewEventsHandler(hub),
		Health:      handler.NewHealthHandler(st, redisClient, sunoClient, poller, hub),
	}

	// Middleware
	rateLimiter := middleware.NewRateLimiter(redisClient, log)
	opts := handler.RouteOptions{
		Auth:          middleware.Anonymous(),
		GenerateLimit: rateLimiter.GenerateLimit(cfg.RateLimit.GeneratePerHour),
		StemsLimit:    rateLimiter.StemsLimit(cfg.RateLimit.StemsPerHour),
	}
	if cfg.Auth.Enabled {
		authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, time.Duration(cfg.JWT.Expiration)*time.Hour)
		if cfg.Auth.Issuer != "" || cfg.Auth.JWKSURL != "" {
			verifier, err := middleware.NewJWKSVerifier(ctx, cfg.Auth)
			if err != nil {
				return err
			}
			authMiddleware.WithVerifier(verifier)
			log.Info("identity provider tokens accepted", slog.String("issuer", cfg.Auth.Issuer))
		}
		opts.Auth = authMiddleware.Authenticate()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handler.ErrorHandler,
		DisableStartupMessage: cfg.Server.Env == "production",
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	handler.Register(app, handlers, opts)

	// Graceful shutdown
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Info("server starting",
		slog.String("addr", addr),
		slog.String("database", st.Driver()),
		slog.String("poller", cfg.Poller.Backend),
		slog.Bool("auth", cfg.Auth.Enabled),
		slog.Bool("archive", cfg.Storage.Enabled),
	)
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
