package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"coachd/internal/config"
	"coachd/internal/database"
	"coachd/internal/handlers"
	"coachd/internal/jobs"
	"coachd/internal/llm"
	"coachd/internal/logging"
	"coachd/internal/middleware"
	"coachd/internal/services"
	"coachd/internal/store"
	"coachd/pkg/auth"
)

const extractionSweepInterval = 5 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	logging.Init()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if cfg.LLMAPIKey == "" {
		log.Println("⚠️  LLM_API_KEY is not set; provider calls will fail")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	prompts, err := config.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		log.Fatalf("Failed to load prompts: %v", err)
	}
	stopWatch := make(chan struct{})
	go prompts.Watch(stopWatch)

	jwtAuth, err := auth.NewJWTAuth(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	if err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}

	stores := store.New(db)
	gateway := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.ModelName, cfg.LLMRequestsPerSecond)

	metrics := services.NewMetrics()
	summaries := services.NewSummaryService(gateway, prompts, cfg.HistoryTruncateThreshold, cfg.SummaryCacheTTL, cfg.SummaryStorePath)
	contextSvc := services.NewContextService(prompts, stores.Goals, stores.Memories, summaries)
	extraction := services.NewMemoryExtractionService(gateway, prompts, stores, metrics)
	chatSvc := services.NewChatService(gateway, contextSvc, summaries, extraction, prompts, cfg.Temperature, cfg.MaxTokens, metrics)
	intake := services.NewIntakeService(gateway, prompts, stores, cfg.IntakeMinMemories)

	scheduler := jobs.NewScheduler(
		jobs.NewExtractionJob(extraction, extractionSweepInterval),
	)
	scheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:      "coachd",
		ErrorHandler: errorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // SSE streams stay open well past normal responses
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	prom := fiberprometheus.New("coachd")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	registerRoutes(app, jwtAuth, db, stores, chatSvc, intake)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🔄 Shutting down...")
		close(stopWatch)
		scheduler.Stop()
		if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
			log.Printf("⚠️  Forced shutdown: %v", err)
		}
	}()

	log.Printf("✅ coachd listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func registerRoutes(app *fiber.App, jwtAuth *auth.JWTAuth, db *database.DB, stores *store.Stores, chatSvc *services.ChatService, intake *services.IntakeService) {
	authHandler := handlers.NewAuthHandler(stores.Users, jwtAuth)
	chatHandler := handlers.NewChatHandler(stores.Chats, stores.Messages, chatSvc)
	messageHandler := handlers.NewMessageHandler(stores.Messages)
	goalHandler := handlers.NewGoalHandler(stores.Goals)
	memoryHandler := handlers.NewMemoryHandler(stores.Memories)
	materialHandler := handlers.NewMaterialHandler(stores.Materials)
	userHandler := handlers.NewUserHandler(stores.Users, stores.Profiles, intake)
	healthHandler := handlers.NewHealthHandler(db)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	authGroup := api.Group("/auth", middleware.AuthRateLimit())
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)

	// Everything below requires a valid access token.
	api.Use(middleware.JWTAuth(jwtAuth))

	api.Post("/chat/stream", middleware.ChatRateLimit(), chatHandler.Stream)

	api.Get("/chats", chatHandler.List)
	api.Post("/chats", chatHandler.Create)
	api.Put("/chats/:id", chatHandler.Rename)
	api.Delete("/chats/:id", chatHandler.Delete)
	api.Get("/chats/:id/messages", chatHandler.Messages)
	api.Post("/chats/generate-title", middleware.ChatRateLimit(), chatHandler.GenerateTitle)

	api.Get("/messages", messageHandler.List)
	api.Post("/messages", messageHandler.Save)
	api.Delete("/messages", messageHandler.Clear)

	api.Get("/goals", goalHandler.List)
	api.Post("/goals", goalHandler.Create)
	api.Put("/goals/:id/status", goalHandler.UpdateStatus)
	api.Delete("/goals/:id", goalHandler.Delete)

	api.Get("/memories", memoryHandler.List)
	api.Delete("/memories/:id", memoryHandler.Delete)

	api.Get("/books", materialHandler.ListBooks)
	api.Post("/books", materialHandler.CreateBook)
	api.Get("/videos", materialHandler.ListVideos)
	api.Post("/videos", materialHandler.CreateVideo)
	api.Post("/feedback", materialHandler.CreateFeedback)

	api.Get("/user/status", userHandler.Status)
	api.Get("/user/profile", userHandler.Profile)
	api.Post("/initial-call/initialize", middleware.ChatRateLimit(), userHandler.InitializeIntake)
	api.Post("/initial-call/chat", middleware.ChatRateLimit(), userHandler.IntakeChat)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
