package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/qrac-app/draw-chat/internal/cache"
	"github.com/qrac-app/draw-chat/internal/handlers"
	"github.com/qrac-app/draw-chat/internal/httpx"
	"github.com/qrac-app/draw-chat/internal/middleware"
	"github.com/qrac-app/draw-chat/internal/repository"
	"github.com/qrac-app/draw-chat/internal/service"
	"github.com/qrac-app/draw-chat/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Draw Chat Backend",
		// Support avatar uploads up to 5MB + overhead.
		BodyLimit: 8 * 1024 * 1024, // 8MB
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	chatCache := cache.NewChatCache(redisCache)
	presenceCache := cache.NewPresenceCache(redisCache)

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	legacyMessageRepo := repository.NewLegacyMessageRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize S3/MinIO storage (best-effort; feature endpoints return 503 if missing)
	var s3Store *storage.S3Storage
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewS3Storage(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		s3Store = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	// Interface wrappers must stay nil when storage is absent; a typed
	// nil pointer would dodge the nil checks in the services.
	var signer service.ObjectURLSigner
	var attachmentStore service.AttachmentStore
	if s3Store != nil {
		signer = s3Store
		attachmentStore = s3Store
	}

	// Initialize services
	authService := service.NewAuthService(profileRepo)
	profileService := service.NewProfileService(profileRepo)
	chatService := service.NewChatService(chatRepo, profileRepo, messageRepo)
	messageService := service.NewMessageService(messageRepo, chatRepo, profileRepo, signer)
	attachmentService := service.NewAttachmentService(attachmentRepo, profileRepo, attachmentStore)
	migrationService := service.NewMigrationService(legacyMessageRepo, profileRepo, chatRepo, messageRepo)
	settingsService := service.NewSettingsService(settingsRepo, profileRepo)
	avatarService := service.NewAvatarService(profileRepo, s3Store)

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(presenceCache)
	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)
	chatHandler := handlers.NewChatHandler(chatService, chatCache)
	messageHandler := handlers.NewMessageHandler(messageService, chatService, chatCache, wsHandler.GetHub())
	attachmentHandler := handlers.NewAttachmentHandler(attachmentService)
	migrationHandler := handlers.NewMigrationHandler(migrationService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	avatarHandler := handlers.NewAvatarHandler(avatarService)
	mediaHandler := handlers.NewMediaHandler(s3Store)

	// Public routes
	api := app.Group("/api", middleware.OriginAllowed())
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	api.Get("/profiles/check-username", profileHandler.CheckUsername) // Public endpoint for username check

	// Protected routes
	protected := api.Group("/", middleware.AuthRequired())
	protected.Get("/profiles/me", profileHandler.GetCurrentProfile)
	protected.Put("/profiles/me", profileHandler.UpdateProfile)
	protected.Get("/profiles/me/settings", settingsHandler.GetSettings)
	protected.Put("/profiles/me/settings", settingsHandler.UpdateSettings)
	protected.Post(
		"/profiles/me/avatar",
		limiter.New(limiter.Config{
			Max:        10,
			Expiration: 10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				if pid, err := httpx.LocalUint(c, "profileID"); err == nil {
					return "avatar:" + strconv.FormatUint(uint64(pid), 10)
				}
				return c.IP()
			},
		}),
		avatarHandler.UploadMyAvatar,
	)
	protected.Delete("/profiles/me/avatar", avatarHandler.DeleteMyAvatar)
	protected.Get("/media/avatars/*", mediaHandler.GetAvatar)
	protected.Get("/profiles/search", profileHandler.SearchProfiles)
	protected.Get("/profiles/:username", profileHandler.GetProfileByUsername)

	// Chat routes
	protected.Post("/chats", chatHandler.CreateChat)
	protected.Get("/chats", chatHandler.ListChats)
	protected.Post("/chats/private", chatHandler.GetOrCreatePrivateChat)
	protected.Get("/chats/:id", chatHandler.GetChat)
	protected.Get("/chats/:id/messages", messageHandler.GetMessages)
	protected.Get("/chats/:id/messages/all", messageHandler.GetAllMessages)
	protected.Post("/chats/:id/messages", messageHandler.SendMessage)
	protected.Post("/chats/:id/read", messageHandler.MarkRead)
	protected.Get("/chats/:id/unread", messageHandler.GetUnreadCount)

	// Attachment routes
	protected.Post("/attachments/upload-url", attachmentHandler.IssueUploadURL)
	protected.Post("/attachments", attachmentHandler.CreateAttachment)
	protected.Get("/attachments", attachmentHandler.ListMyAttachments)
	protected.Get("/attachments/:id", attachmentHandler.GetAttachment)
	protected.Get("/attachments/:id/url", attachmentHandler.GetAttachmentURL)
	protected.Delete("/attachments/:id", attachmentHandler.DeleteAttachment)

	// Maintenance routes
	protected.Post("/maintenance/migrate-legacy", migrationHandler.MigrateLegacyMessages)
	protected.Post("/maintenance/fix-previews", messageHandler.FixChatPreviews)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			// Upgrade to WebSocket
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Draw Chat is running",
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
