package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/socialspark/server/configs"
	"github.com/socialspark/server/internal/ai"
	"github.com/socialspark/server/internal/api/handlers"
	"github.com/socialspark/server/internal/api/middleware"
	job "github.com/socialspark/server/internal/jobs"
	"github.com/socialspark/server/internal/queue"
	"github.com/socialspark/server/internal/repository"
	"github.com/socialspark/server/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	knowledgeRepo := repository.NewKnowledgeRepository(db)

	var mediaHost service.MediaHost
	if cfg.MediaStorage == "r2" {
		mediaHost = service.NewR2Service(cfg.R2)
	} else {
		mediaHost = service.NewCloudinaryService(cfg.Cloudinary)
	}

	mediaService := service.NewMediaService(postRepo, settingsRepo, mediaHost)
	facebookService := service.NewFacebookService(cfg)
	instagramService := service.NewInstagramService(cfg)
	publisherService := service.NewPublisherService(postRepo, socialAccountRepo, mediaService, facebookService, instagramService)
	postService := service.NewPostService(postRepo, socialAccountRepo)
	accountService := service.NewAccountService(cfg, socialAccountRepo, facebookService)
	settingsService := service.NewSettingsService(cfg, settingsRepo)

	var providers []ai.Provider
	for _, p := range cfg.AIProviders() {
		if !p.Enabled {
			continue
		}
		switch p.Name {
		case "openai":
			providers = append(providers, ai.NewOpenAIProvider(p.APIKey))
		case "gemini":
			providers = append(providers, ai.NewGeminiProvider(p.APIKey))
		case "claude":
			providers = append(providers, ai.NewClaudeProvider(p.APIKey))
		case "perplexity":
			providers = append(providers, ai.NewPerplexityProvider(p.APIKey))
		}
	}
	supportService := service.NewSupportService(providers, conversationRepo, messageRepo, feedbackRepo, knowledgeRepo)

	authMiddleware := middleware.NewAuthMiddleware(cfg)

	account := handlers.NewAccountHandler(cfg, accountService)
	app.Get("/auth/facebook/callback", account.Callback)

	support := handlers.NewSupportHandler(supportService)
	app.Post("/support/conversations", support.StartConversation)
	app.Post("/support/chat", support.Chat)
	app.Get("/support/conversations/:id/messages", support.History)
	app.Post("/support/feedback", support.SubmitFeedback)
	app.Get("/support/stats", support.Stats)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/accounts/connect", account.Connect)
	api.Post("/accounts", account.CreateAccount)
	api.Get("/accounts", account.ListAccounts)
	api.Delete("/accounts/:id", account.RemoveAccount)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings", settings.GetSettings)
	api.Post("/settings", settings.UpdateSettings)

	post := handlers.NewPostHandler(postService, publisherService, client)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Put("/posts/:id", post.UpdatePost)
	api.Post("/posts/:id/publish", post.PublishPost)
	api.Delete("/posts/:id", post.RemovePost)

	// cron jobs
	schedulerJob := job.NewSchedulerJob(postRepo, publisherService)
	tokenMonitorJob := job.NewTokenMonitorJob(socialAccountRepo)

	// queue
	queueW := queue.NewQueue(publisherService)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", schedulerJob.Run)
	c.AddFunc("@every 01h00m00s", tokenMonitorJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
