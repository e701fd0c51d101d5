package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/wordscope-api/internal/config"
	"github.com/yourusername/wordscope-api/internal/handler"
	"github.com/yourusername/wordscope-api/internal/middleware"
	pgRepo "github.com/yourusername/wordscope-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/wordscope-api/internal/repository/redis"
	"github.com/yourusername/wordscope-api/internal/service"
	"github.com/yourusername/wordscope-api/internal/storage"
	"github.com/yourusername/wordscope-api/internal/vision"
	ws "github.com/yourusername/wordscope-api/internal/websocket"
	"github.com/yourusername/wordscope-api/pkg/auth"
	"github.com/yourusername/wordscope-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Контекст жизненного цикла фоновых горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	recordRepo := pgRepo.NewRecordRepo(db)
	refreshTokenRepo := pgRepo.NewRefreshTokenRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализируем внешние клиенты
	visionClient := vision.NewOpenAIClient(cfg.Vision)

	uploader, err := storage.NewS3Uploader(ctx, cfg.Storage)
	if err != nil {
		log.Printf("Failed to initialize S3 uploader: %v", err)
		os.Exit(1)
	}

	var emailSender service.EmailSender = &service.NoopEmailSender{}
	if cfg.Email.Enabled {
		resendSender, err := service.NewResendEmailSender(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize Resend email sender: %v", err)
			os.Exit(1)
		}
		emailSender = resendSender
	}

	// WebSocket hub
	wsHub := ws.NewHub()
	go wsHub.Run(ctx.Done())

	// Инициализируем сервисы
	authService, err := service.NewAuthService(userRepo, refreshTokenRepo, jwtService,
		time.Duration(cfg.Auth.RefreshTokenLifetime)*time.Hour)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}

	recordService, err := service.NewRecordService(recordRepo, cfg.Analysis.MaxTags)
	if err != nil {
		log.Printf("Failed to initialize RecordService: %v", err)
		os.Exit(1)
	}

	analysisService, err := service.NewAnalysisService(visionClient, recordService, cacheRepo, wsHub,
		cfg.Analysis.Workers, cfg.Analysis.QueueSize,
		time.Duration(cfg.Analysis.CacheTTLHours)*time.Hour)
	if err != nil {
		log.Printf("Failed to initialize AnalysisService: %v", err)
		os.Exit(1)
	}
	analysisService.Start(ctx)

	quizService, err := service.NewQuizService(recordRepo,
		time.Duration(cfg.Quiz.SessionTTLMinutes)*time.Minute)
	if err != nil {
		log.Printf("Failed to initialize QuizService: %v", err)
		os.Exit(1)
	}
	quizService.StartJanitor(ctx, time.Minute)

	reminderService, err := service.NewReminderService(userRepo, recordRepo, cacheRepo, emailSender)
	if err != nil {
		log.Printf("Failed to initialize ReminderService: %v", err)
		os.Exit(1)
	}
	reminderService.Start(ctx)

	// Периодическая очистка истекших refresh-токенов
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := refreshTokenRepo.DeleteExpired()
				if err != nil {
					log.Printf("Ошибка при очистке refresh-токенов: %v", err)
				} else if deleted > 0 {
					log.Printf("Удалено истекших refresh-токенов: %d", deleted)
				}
			}
		}
	}()

	allowedOrigins := []string{"https://wordscope.app", "http://localhost:5173", "http://localhost:3000"}

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(authService, recordService)
	recordHandler := handler.NewRecordHandler(recordService)
	imageHandler := handler.NewImageHandler(uploader, analysisService, cfg.Storage.MaxUploadBytes)
	quizHandler := handler.NewQuizHandler(quizService)
	wsHandler := handler.NewWSHandler(wsHub, allowedOrigins)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	api.Use(rateLimiter.LimitByIP(middleware.APIRateLimitConfig()))
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			strictLimit := rateLimiter.Limit(middleware.AuthRateLimitConfig())
			authGroup.POST("/register", strictLimit, authHandler.Register)
			authGroup.POST("/login", strictLimit, authHandler.Login)
			authGroup.POST("/refresh", strictLimit, authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware.RequireAuth(), authHandler.Logout)
		}

		// Профиль
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", userHandler.Me)
			users.PATCH("/me/reminder", userHandler.UpdateReminder)
		}

		// Изображения и анализ
		images := api.Group("/images")
		images.Use(authMiddleware.RequireAuth())
		{
			images.POST("", imageHandler.Upload)
			images.POST("/analyze", rateLimiter.Limit(middleware.AnalysisRateLimitConfig()), imageHandler.Analyze)
		}

		jobs := api.Group("/jobs")
		jobs.Use(authMiddleware.RequireAuth())
		{
			jobs.GET("/:id", imageHandler.JobStatus)
		}

		// Записи словаря
		records := api.Group("/records")
		records.Use(authMiddleware.RequireAuth())
		{
			records.GET("", recordHandler.List)
			records.POST("", recordHandler.Create)
			records.GET("/export", recordHandler.Export)

			recordWithID := records.Group("/:id")
			recordWithID.Use(middleware.ExtractUintParam("id", "recordID"))
			{
				recordWithID.GET("", recordHandler.Get)
				recordWithID.DELETE("", recordHandler.Delete)
			}
		}

		// Сессии викторины
		quiz := api.Group("/quiz")
		quiz.Use(authMiddleware.RequireAuth())
		{
			quiz.POST("/sessions", quizHandler.StartSession)

			sessionWithID := quiz.Group("/sessions/:id")
			{
				sessionWithID.GET("", quizHandler.GetSession)
				sessionWithID.GET("/question", quizHandler.CurrentQuestion)
				sessionWithID.POST("/answers", quizHandler.SubmitAnswer)
				sessionWithID.POST("/restart", quizHandler.Restart)
				sessionWithID.GET("/result", quizHandler.Result)
				sessionWithID.DELETE("", quizHandler.EndSession)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws", authMiddleware.RequireAuthQueryToken(), wsHandler.Connect)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// Ждем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Завершаем фоновые горутины и дожидаемся воркеров анализа
	cancel()
	analysisService.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
