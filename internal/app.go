// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	router "valley-ledger/internal/api"
	"valley-ledger/internal/api/handler"
	"valley-ledger/internal/auth"
	"valley-ledger/internal/config"
	"valley-ledger/internal/notify"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/repository/postgres"
	"valley-ledger/internal/service"
	"valley-ledger/internal/util"
	"valley-ledger/pkg/db"
	"valley-ledger/pkg/rabbitmq"
	"valley-ledger/pkg/redisx"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	producer   *rabbitmq.Producer
	dispatcher *notify.Dispatcher

	// Repositories
	AccountRepository     repository.AccountRepository
	AdminRepository       repository.AdminRepository
	CardRepository        repository.CardRepository
	TransactionRepository repository.TransactionRepository
	LoanRepository        repository.LoanRepository

	// Services
	Gate             *auth.Gate
	Engine           *service.Engine
	LedgerService    service.LedgerService
	CardService      service.CardService
	AccountService   service.AccountService
	LifecycleService service.LifecycleService
	LoanService      service.LoanService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	app.Logger = util.InitLogger(cfg.LogLevel)
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, app.DB); err != nil {
			return err
		}
		app.Logger.Info("Database schema applied.")
	}
	app.Logger.Info("Database connection established.")

	// 4. PIN attempt limiter
	var limiter auth.AttemptLimiter = auth.NoopAttemptLimiter{}
	if cfg.RedisURL != "" {
		client, err := redisx.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		app.Redis = client
		limiter = auth.NewRedisAttemptLimiter(client, "ledger:pin_attempts", cfg.PinMaxAttempts, cfg.PinLockout)
		app.Logger.Info("PIN attempt limiter backed by redis.")
	} else {
		app.Logger.Warn("REDIS_URL not set, PIN lockout disabled.")
	}

	// 5. Notifications
	var sink notify.Sink = notify.NewLogSink(app.Logger)
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewProducer(cfg.RabbitMQURL, cfg.NotifyExchange)
		if err != nil {
			return err
		}
		app.producer = producer
		sink = notify.NewAMQPSink(producer, "ledger")
		app.Logger.Info("Notifications published to rabbitmq.", "exchange", cfg.NotifyExchange)
	}
	app.dispatcher = notify.NewDispatcher(sink, cfg.NotifyQueueSize, cfg.NotifyTimeout, app.Logger)

	// 6. Initialize Repositories
	app.AccountRepository = postgres.NewAccountRepository()
	app.AdminRepository = postgres.NewAdminRepository()
	app.CardRepository = postgres.NewCardRepository()
	app.TransactionRepository = postgres.NewTransactionRepository()
	app.LoanRepository = postgres.NewLoanRepository()
	app.Logger.Info("Repositories initialized.")

	// 7. Initialize Services
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	app.Gate = auth.NewGate(app.DB, tokens, app.AccountRepository, app.AdminRepository, limiter, app.Logger)

	txFuncs := db.DefaultTxFuncs()
	app.Engine = service.NewEngine(
		app.DB,
		app.AccountRepository,
		app.AdminRepository,
		app.CardRepository,
		app.TransactionRepository,
		txFuncs,
		app.dispatcher,
		app.Logger,
	)
	app.LedgerService = service.NewLedgerService(app.Engine, app.DB, app.AccountRepository, app.AdminRepository, app.TransactionRepository, app.Gate)
	app.CardService = service.NewCardService(app.Engine, app.DB, app.AccountRepository, app.CardRepository, app.Gate, app.Logger)
	app.AccountService = service.NewAccountService(app.DB, app.AccountRepository, app.AdminRepository, app.Gate, app.Logger)
	app.LifecycleService = service.NewLifecycleService(
		app.DB,
		app.DB,
		app.AccountRepository,
		app.AdminRepository,
		app.CardRepository,
		app.TransactionRepository,
		txFuncs,
		app.Logger,
	)
	app.LoanService = service.NewLoanService(app.DB, app.AccountRepository, app.LoanRepository, app.dispatcher, app.Logger)
	app.Logger.Info("Services initialized.")

	if cfg.SuperAdminEmail != "" {
		if err := app.AccountService.EnsureSuperAdmin(ctx, cfg.SuperAdminEmail, cfg.SuperAdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap superadmin: %w", err)
		}
	}

	// 8. Initialize HTTP Handlers and Router
	app.HTTPHandler = router.NewRouter(router.Handlers{
		Auth:      handler.NewAuthHandler(app.Gate, app.Logger),
		Accounts:  handler.NewAccountHandler(app.AccountService, app.Logger),
		Ledger:    handler.NewLedgerHandler(app.LedgerService, app.Logger),
		Cards:     handler.NewCardHandler(app.CardService, app.Logger),
		Lifecycle: handler.NewLifecycleHandler(app.LifecycleService, app.Logger),
		Loans:     handler.NewLoanHandler(app.LoanService, app.Logger),
	}, app.Gate, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources. Pending
// notifications are flushed before the broker connection closes.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	var errs []error
	if app.dispatcher != nil {
		if err := app.dispatcher.Close(ctx); err != nil {
			app.Logger.Warn("Notification queue not drained", "error", err)
		}
	}
	if app.producer != nil {
		app.producer.Close()
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
		app.Logger.Info("Database connection closed.")
	}
	if err := errors.Join(errs...); err != nil {
		app.Logger.Error("Shutdown finished with errors", "error", err)
		return err
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
