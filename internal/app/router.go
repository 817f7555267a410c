package app

import (
	"log"
	"time"

	"hangoutapp/internal/config"
	"hangoutapp/internal/middleware"
	"hangoutapp/internal/model"
	"hangoutapp/internal/repository"
	"hangoutapp/internal/service"
	"hangoutapp/internal/util"
	"hangoutapp/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	// Set Gin mode
	if cfg.ServerPort == "5000" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware(cfg.ClientURL))

	// Rate limiting middleware (if enabled)
	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&model.User{},
		&model.Connection{},
		&model.ConnectionRequest{},
		&model.HangoutRequest{},
		&model.SecondDegreeApproval{},
		&model.Notification{},
	); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// Initialize Redis with retry logic
	redisClient := initRedisWithRetry(cfg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	connRepo := repository.NewConnectionRepository(db, redisClient)
	connReqRepo := repository.NewConnectionRequestRepository(db, redisClient)
	hangoutRepo := repository.NewHangoutRequestRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db, redisClient)

	// Initialize RabbitMQ with retry logic
	rabbitMQ := initRabbitMQWithRetry(cfg)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("WebSocket hub started")

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, rabbitMQ)
	notificationService.SetWSHub(wsHub)
	wsHub.SetReadReceiptHandler(func(userID, notificationID string) {
		if err := notificationService.MarkAsRead(notificationID, userID); err != nil {
			log.Printf("Failed to mark notification %s read for user %s: %v", notificationID, userID, err)
		}
	})
	authService := service.NewAuthService(userRepo, notificationService, cfg.JWTSecret, cfg.JWTExpiry, cfg.OTPExpiry)
	graphService := service.NewGraphService(connRepo, userRepo, connReqRepo, hangoutRepo, approvalRepo)
	connectionService := service.NewConnectionService(connRepo, connReqRepo, userRepo, notificationService)
	hangoutService := service.NewHangoutService(hangoutRepo, approvalRepo, userRepo, graphService, notificationService, cfg.HangoutTTL)

	// Initialize notification worker if RabbitMQ is available
	if rabbitMQ != nil {
		notificationWorker := service.NewNotificationWorker(rabbitMQ, wsHub)
		if err := notificationWorker.Start(); err != nil {
			log.Printf("Warning: Failed to start notification worker: %v", err)
		} else {
			log.Println("Notification worker started successfully")
		}
	} else {
		log.Println("Notification worker not started - RabbitMQ connection failed. Notifications push directly via WebSocket.")
	}

	// Initialize handlers
	authHandler := NewAuthHandler(authService, cfg.JWTSecret)
	userHandler := NewUserHandler(userRepo)
	connectionHandler := NewConnectionHandler(connectionService, graphService)
	graphHandler := NewGraphHandler(graphService)
	hangoutHandler := NewHangoutHandler(hangoutService)
	notificationHandler := NewNotificationHandler(notificationService)

	// API routes
	api := r.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/request-otp", authHandler.RequestOTP)
			auth.POST("/verify-otp", authHandler.VerifyOTP)

			// Protected routes
			auth.GET("/me", authHandler.AuthMiddleware(), authHandler.GetMe)
		}

		// User routes
		users := api.Group("/users")
		{
			users.Use(authHandler.AuthMiddleware())
			{
				users.GET("", userHandler.GetUsers)
				users.GET("/search", userHandler.SearchUsers)
				users.PUT("/me", userHandler.UpdateMe)
				users.GET("/:id", userHandler.GetUser)
			}
		}

		// Connection routes
		connections := api.Group("/connections")
		{
			connections.Use(authHandler.AuthMiddleware())
			{
				// IMPORTANT: More specific routes must be registered before wildcard routes
				connections.POST("/requests", connectionHandler.SendRequest)
				connections.GET("/requests/incoming", connectionHandler.GetIncomingRequests)
				connections.GET("/requests/sent", connectionHandler.GetSentRequests)
				connections.POST("/requests/:id/accept", connectionHandler.AcceptRequest)
				connections.DELETE("/requests/:id/reject", connectionHandler.RejectRequest)
				connections.DELETE("/requests/:id", connectionHandler.UnsendRequest)

				connections.GET("/first-degree", connectionHandler.GetFirstDegree)
				connections.GET("/second-degree", connectionHandler.GetSecondDegree)
				connections.GET("/degree/:userID", connectionHandler.GetDegree)
				connections.GET("/mutual/:userID", connectionHandler.GetMutualFriends)

				connections.GET("", connectionHandler.GetConnections)
				connections.DELETE("/:userID", connectionHandler.RemoveConnection)
			}
		}

		// Graph route
		graph := api.Group("/graph")
		{
			graph.Use(authHandler.AuthMiddleware())
			{
				graph.GET("", graphHandler.GetGraph)
			}
		}

		// Hangout routes
		hangouts := api.Group("/hangouts")
		{
			hangouts.Use(authHandler.AuthMiddleware())
			{
				hangouts.POST("", hangoutHandler.SendRequest)
				hangouts.GET("/pending", hangoutHandler.GetPendingRequests)
				hangouts.GET("/sent", hangoutHandler.GetSentRequests)
				hangouts.POST("/:fromID/accept", hangoutHandler.AcceptRequest)
				hangouts.POST("/:fromID/decline", hangoutHandler.DeclineRequest)
				hangouts.DELETE("/:toID", hangoutHandler.CancelRequest)
			}
		}

		// Second-degree approval routes
		approvals := api.Group("/approvals")
		{
			approvals.Use(authHandler.AuthMiddleware())
			{
				approvals.GET("/pending", hangoutHandler.GetPendingApprovals)
				approvals.POST("/:id/decision", hangoutHandler.DecideApproval)
			}
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.Use(authHandler.AuthMiddleware())
			{
				notifications.GET("", notificationHandler.GetNotifications)
				notifications.GET("/unread", notificationHandler.GetUnreadNotifications)
				notifications.GET("/unread/count", notificationHandler.GetUnreadCount)
				notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
				notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
				notifications.DELETE("/:id", notificationHandler.DeleteNotification)
			}
		}
	}

	// WebSocket route
	r.GET("/ws", func(c *gin.Context) {
		websocket.ServeWS(wsHub, cfg.JWTSecret).ServeHTTP(c.Writer, c.Request)
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "host=" + cfg.PostgresHost +
			" port=" + cfg.PostgresPort +
			" user=" + cfg.PostgresUser +
			" password=" + cfg.PostgresPassword +
			" dbname=" + cfg.PostgresDB +
			" sslmode=" + cfg.PostgresSSLMode
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// initRabbitMQWithRetry attempts to connect to RabbitMQ with exponential backoff retry
func initRabbitMQWithRetry(cfg *config.Config) *util.RabbitMQClient {
	maxRetries := 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		rabbitMQ, err := util.NewRabbitMQClient(cfg)
		if err == nil {
			log.Printf("RabbitMQ connected successfully on attempt %d", attempt)
			return rabbitMQ
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}

			log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to RabbitMQ after %d attempts: %v. Async notification delivery will be disabled.", maxRetries, err)
		}
	}

	return nil
}

// initRedisWithRetry attempts to connect to Redis with exponential backoff retry
func initRedisWithRetry(cfg *config.Config) *util.RedisClient {
	maxRetries := 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		redisClient, err := util.NewRedisClient(cfg)
		if err == nil {
			log.Printf("Redis connected successfully on attempt %d", attempt)
			return redisClient
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}

			log.Printf("Failed to connect to Redis (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to Redis after %d attempts: %v. Caching will be disabled.", maxRetries, err)
			log.Println("Note: Application will continue without Redis caching")
		}
	}

	return nil
}

func corsMiddleware(clientURL string) gin.HandlerFunc {
	allowedOrigins := []string{
		clientURL, // Default from config
		"http://localhost:3000",
		"http://localhost:19006",
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", clientURL)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
