package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/bootstrap"
	"alfredoptarigan/skill-matcher/internal/config"
	"alfredoptarigan/skill-matcher/internal/handlers"
	"alfredoptarigan/skill-matcher/internal/logger"
	"alfredoptarigan/skill-matcher/internal/repositories"
	"alfredoptarigan/skill-matcher/internal/services"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository(db)
	recordRepo := repositories.NewRecordRepository(db)
	matchRepo := repositories.NewMatchResultRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build pipeline", zap.Error(err))
	}
	defer components.Close()

	recorder := services.NewRecorder(recordRepo, cfg.Recorder.Concurrency, cfg.Recorder.QueueSize, log)
	recorder.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "Skill Matcher API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 2,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.Register(app.Group("/api/v1"), handlers.Handlers{
		Users:   handlers.NewUserHandler(userRepo, log),
		Resumes: handlers.NewResumeHandler(components.Pipeline, recorder, userRepo, cfg.Storage.MaxFileSize, log),
		Jobs:    handlers.NewJobHandler(components.Pipeline, recorder, userRepo, cfg.Storage.MaxFileSize, log),
		Matches: handlers.NewMatchHandler(components.Pipeline, recorder, matchRepo, userRepo, cfg.Storage.MaxFileSize, log),
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Skill Matcher API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/users",
				"POST /api/v1/resume/upload",
				"POST /api/v1/job/upload-jd",
				"POST /api/v1/job/match",
				"POST /api/v1/match/upload",
				"GET /api/v1/match/:id",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	if err := app.Listen(addr); err != nil {
		log.Error("server stopped", zap.Error(err))
	}

	// drain pending writes after in-flight requests finished
	recorder.Stop()
}
