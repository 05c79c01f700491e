package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/crypto/bcrypt"

	_ "mamastoria/docs"
	"mamastoria/internal/config"
	"mamastoria/internal/handlers"
	"mamastoria/internal/middleware"
	"mamastoria/internal/pdf"
	"mamastoria/internal/realtime"
	"mamastoria/internal/repositories"
	"mamastoria/internal/routes"
	"mamastoria/internal/services"
	"mamastoria/internal/utils"
)

const Version = "1.0.0"

func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	utils.InitLogger(cfg.Server.Mode)
	utils.RegisterCustomValidations()
	utils.SetPageLimits(cfg.Pagination.DefaultPerPage, cfg.Pagination.MaxPerPage)
	middleware.JWTKey = []byte(cfg.JWT.Secret)

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("[app] close db")
		}
	}()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	// === Redis (rate limit); без него лимитер выключен ===
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled && cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		limiter = middleware.NewRateLimiter(rdb, "mamastoria:rl")
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	analyticsRepo := repositories.NewAnalyticsRepository(db)
	comicRepo := repositories.NewComicRepository(db)
	masterRepo := repositories.NewMasterDataRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	likeRepo := repositories.NewLikeRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	comicRequestRepo := repositories.NewComicRequestRepository(db)

	// === Services ===
	now := services.Clock(time.Now)
	hasher := services.NewBcryptHasher(bcrypt.DefaultCost)

	var mailer services.Mailer
	switch cfg.Email.Provider {
	case "resend":
		mailer = services.NewResendMailer(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.ResendURL, nil)
	default:
		mailer = services.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPassword, cfg.Email.FromEmail)
	}
	emailService := services.NewEmailService(mailer, cfg.Email.SendTimeout, cfg.Verification.CodeTTL)

	var storage services.StorageService
	if cfg.Storage.Endpoint != "" && cfg.Storage.AccessKey != "" {
		st, err := services.NewMinIOStorageService(context.Background(), cfg.Storage.Endpoint, cfg.Storage.AccessKey,
			cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.UseSSL, cfg.Storage.MaxPhotoSize)
		if err != nil {
			log.Warn().Err(err).Msg("[app] object storage unavailable, photo upload and downloads disabled")
		} else {
			storage = st
		}
	}

	authService := services.NewAuthService(userRepo, emailService, hasher, services.AuthConfig{
		AccessTTL:      cfg.JWT.AccessTTL,
		RefreshTTL:     cfg.JWT.RefreshTTL,
		CodeTTL:        cfg.Verification.CodeTTL,
		ResendCooldown: cfg.Verification.ResendCooldown,
	}, now)
	verificationService := services.NewVerificationService(userRepo, emailService, hasher, cfg.Verification.CodeTTL, now)
	userService := services.NewUserService(userRepo, txRepo, analyticsRepo, storage, hasher, now)
	masterService := services.NewMasterDataService(masterRepo)
	generator := services.NewDraftGenerator(cfg.Generator.BaseURL, cfg.Generator.APIKey, cfg.Generator.Timeout)
	comicService := services.NewComicService(comicRepo, masterRepo, userRepo, generator)
	hub := realtime.NewNotificationHub(cfg.Server.CORSOrigins)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, services.LogPushNotifier{}, hub)
	commentService := services.NewCommentService(commentRepo, comicRepo)
	likeService := services.NewLikeService(likeRepo, comicRepo, userRepo, notificationService)
	doku := services.NewDokuClient(cfg.Doku.ClientID, cfg.Doku.SecretKey, cfg.Doku.IsProduction, cfg.Server.PublicBaseURL)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, txRepo, userRepo, doku, now)
	analyticsService := services.NewAnalyticsService(analyticsRepo, subscriptionRepo, userRepo, txRepo, now)
	ledgerService := services.NewLedgerService(ledgerRepo, userRepo)
	comicRequestService := services.NewComicRequestService(comicRequestRepo)

	fontPath := cfg.Files.FontPath
	if _, err := os.Stat(fontPath); err != nil {
		log.Warn().Str("font", fontPath).Msg("[app] receipt font not found, using core font")
		fontPath = ""
	}

	// === Handlers ===
	h := routes.Handlers{
		Health:       handlers.NewHealthHandler(db, Version),
		Auth:         handlers.NewAuthHandler(authService, userService),
		Verify:       handlers.NewVerifyHandler(verificationService),
		User:         handlers.NewUserHandler(userService, cfg.Storage.MaxPhotoSize),
		Master:       handlers.NewMasterHandler(masterService),
		Comic:        handlers.NewComicHandler(comicService),
		Social:       handlers.NewSocialHandler(commentService, likeService),
		Notification: handlers.NewNotificationHandler(notificationService, hub),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService, doku, pdf.NewReceiptGenerator(fontPath), cfg.Doku.IsProduction),
		Analytics:    handlers.NewAnalyticsHandler(analyticsService),
		Ledger:       handlers.NewLedgerHandler(ledgerService),
		ComicRequest: handlers.NewComicRequestHandler(comicRequestService),
		Download:     handlers.NewDownloadHandler(storage),
		RateLimiter:  limiter,
		IssueLimit: middleware.RateLimitRule{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimit.Window,
		},
	}

	// === Gin ===
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.RequestLogger())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	router.MaxMultipartMemory = cfg.Storage.MaxPhotoSize + 1<<20

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, h)

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("mode", cfg.Server.Mode).Msg("[app] server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("[app] shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
