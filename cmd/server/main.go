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
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	config "github.com/crosswire-app/crosswire/configs"
	"github.com/crosswire-app/crosswire/internal/api/handlers"
	"github.com/crosswire-app/crosswire/internal/api/middleware"
	job "github.com/crosswire-app/crosswire/internal/jobs"
	"github.com/crosswire-app/crosswire/internal/queue"
	"github.com/crosswire-app/crosswire/internal/repository"
	"github.com/crosswire-app/crosswire/internal/service"
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

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

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
	variantRepo := repository.NewVariantRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	historyRepo := repository.NewPublishHistoryRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	ayrshareClient := service.NewAyrshareClient(*cfg)
	builder := service.NewPublishBuilder(*cfg)
	publishService := service.NewPublishService(ayrshareClient, builder)
	reconcileService := service.NewReconcileService()
	postService := service.NewPostService(db, postRepo, variantRepo)
	accountService := service.NewAccountService(*cfg, accountRepo)
	mediaService := service.NewMediaService(*cfg, mediaAssetRepo)
	replyService := service.NewReplyLookupService(*cfg, rdb)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)
	editorService := service.NewEditorService(postService, publishService, reconcileService, replyService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	webhook := handlers.NewWebhookHandler(client)
	app.Post("/webhooks/ayrshare", webhook.HandleAyrshare)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	post := handlers.NewPostHandler(postService, editorService, mediaService)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/remove", post.RemovePost)
	api.Post("/posts/variant/save", post.SaveVariant)
	api.Post("/posts/platform/add", post.AddPlatform)
	api.Post("/posts/platform/remove", post.RemovePlatform)
	api.Post("/posts/media/upload", post.UploadMedia)
	api.Post("/posts/thread/preview", post.ThreadPreview)

	publish := handlers.NewPublishHandler(editorService, postService, accountService, replyService, client)
	api.Post("/posts/publish", publish.Publish)
	api.Get("/posts/reply/preview", publish.ReplyPreview)
	api.Post("/posts/reply/set", publish.SetReplyURL)

	account := handlers.NewAccountHandler(accountService)
	api.Get("/accounts", account.ListAccounts)
	api.Get("/account_groups", account.ListGroups)
	api.Post("/accounts/expire", account.ExpireAccount)
	api.Post("/accounts/remove", account.RemoveAccount)

	// cron jobs
	historySyncJob := job.NewHistorySyncJob(ayrshareClient, postService, reconcileService, variantRepo)

	//queue
	queueW := queue.NewQueue(postService, publishService, reconcileService, accountService, historyRepo, historySyncJob)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", historySyncJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)
		mux.HandleFunc(queue.TaskTypeSyncHistory, queueW.HandleSyncHistoryTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

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
