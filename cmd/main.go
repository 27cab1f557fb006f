package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/lumapress/panel-service/internal/config"
	"github.com/lumapress/panel-service/internal/handler"
	"github.com/lumapress/panel-service/internal/handler/middleware"
	"github.com/lumapress/panel-service/internal/repository/postgres"
	"github.com/lumapress/panel-service/internal/service"
	"github.com/lumapress/panel-service/pkg/blacklist"
	"github.com/lumapress/panel-service/pkg/delivery"
	"github.com/lumapress/panel-service/pkg/token"
	"github.com/lumapress/panel-service/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()
	log.Println("✓ Database connection established")

	// Initialize Redis client
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}()
	log.Println("✓ Redis connection established")

	// Load RSA keys for token signing
	privateKey, publicKey, err := loadRSAKeys(cfg)
	if err != nil {
		log.Fatalf("Failed to load RSA keys: %v", err)
	}
	log.Println("✓ RSA keys loaded successfully")

	// Initialize validator
	validate := validator.New()

	// Initialize repositories
	registrationRepo := postgres.NewRegistrationRepository(db)
	otpRepo := postgres.NewOTPRepository(db)
	userRepo := postgres.NewUserRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	provisionRepo := postgres.NewProvisionRepository(db)

	// Initialize token service
	tokenService, err := token.NewService(
		privateKey,
		publicKey,
		cfg.Token.AccessTokenExpiry,
		cfg.Token.RefreshTokenExpiry,
		cfg.Token.Issuer,
	)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	// Initialize token blacklist service
	tokenBlacklist := blacklist.NewTokenBlacklist(redisClient)
	log.Println("✓ Token blacklist service initialized")

	// Initialize code delivery
	var codeSender delivery.CodeSender = delivery.NewLogSender()
	if cfg.Email.Enabled {
		sender, err := delivery.NewResendSender(&delivery.Config{
			APIKey:    cfg.Email.APIKey,
			FromName:  cfg.Email.FromName,
			FromEmail: cfg.Email.FromEmail,
		}, delivery.NewLogSender())
		if err != nil {
			log.Printf("Warning: Failed to initialize email delivery: %v", err)
			log.Println("Verification codes will be logged instead")
		} else {
			codeSender = sender
			log.Println("✓ Email delivery initialized (Resend)")
		}
	} else {
		log.Println("ℹ Email delivery disabled (set EMAIL_ENABLED=true to enable)")
	}

	// Initialize services
	registrationService := service.NewRegistrationService(registrationRepo, otpRepo, userRepo, accountRepo, planRepo, cfg)
	otpService := service.NewOtpService(otpRepo, registrationService, registrationRepo, codeSender, cfg)
	provisionService := service.NewProvisionService(provisionRepo, registrationService, userRepo, planRepo, sessionRepo, tokenService, cfg)
	authService := service.NewAuthService(userRepo, sessionRepo, tokenService, tokenBlacklist, cfg)
	authzService := service.NewAuthzService(userRepo, accountRepo, roleRepo)
	roleService := service.NewRoleService(roleRepo, accountRepo)
	accountService := service.NewAccountService(accountRepo, userRepo, roleRepo, planRepo)

	// Initialize handlers
	registrationHandler := handler.NewRegistrationHandler(registrationService, otpService, provisionService, tokenService, validate)
	authHandler := handler.NewAuthHandler(authService, validate)
	accountHandler := handler.NewAccountHandler(accountService, authzService)
	roleHandler := handler.NewRoleHandler(roleService, validate)
	planHandler := handler.NewPlanHandler(accountService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Panel Service v1.0",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	// Setup global middlewares
	app.Use(middleware.RecoveryMiddleware())
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CORSMiddleware())

	// Setup authentication middlewares
	authMiddleware := middleware.AuthMiddleware(tokenService, tokenBlacklist)
	registrationMiddleware := middleware.RegistrationMiddleware(tokenService)

	// Setup routes
	handler.SetupRoutes(
		app,
		registrationHandler,
		authHandler,
		accountHandler,
		roleHandler,
		planHandler,
		healthHandler,
		authzService,
		authMiddleware,
		registrationMiddleware,
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("🚀 Server starting on http://localhost%s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		if err := app.Listen(addr); err != nil {
			log.Printf("❌ Server failed to start: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("⏳ Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server stopped")
}

// initDB initializes PostgreSQL database connection with retry logic
func initDB(cfg *config.Config) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Error closing database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// initRedis initializes Redis client and verifies connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("Error closing Redis after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// loadRSAKeys loads RSA private and public keys from files
func loadRSAKeys(cfg *config.Config) ([]byte, []byte, error) {
	privateKey, err := os.ReadFile(cfg.Token.PrivateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	publicKey, err := os.ReadFile(cfg.Token.PublicKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read public key file: %w", err)
	}

	return privateKey, publicKey, nil
}
