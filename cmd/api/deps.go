package main

import (
	"context"
	"log"

	"finlink/internal/domain/account"
	"finlink/internal/domain/notification"
	"finlink/internal/domain/sync"
	"finlink/internal/infrastructure/aggregator"
	"finlink/internal/infrastructure/crypto"
	"finlink/internal/infrastructure/firebase"
	"finlink/internal/infrastructure/postgres"
	httphandlers "finlink/internal/interfaces/http"
	"finlink/internal/shared/auth"
	"finlink/internal/shared/config"
	"finlink/internal/webhook"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	AuthHandler         *httphandlers.AuthHandler
	UserHandler         *httphandlers.UserHandler
	AccountHandler      *httphandlers.AccountHandler
	TransactionHandler  *httphandlers.TransactionHandler
	LinkHandler         *httphandlers.LinkHandler
	SyncHandler         *httphandlers.SyncHandler
	WebhookHandler      *httphandlers.WebhookHandler
	NotificationHandler *httphandlers.NotificationHandler

	// Auth
	JWT *auth.JWT

	// Sync engine (for the scheduler job provider)
	Orchestrator        *sync.Orchestrator
	NotificationService *notification.Service
	UserRepo            *postgres.UserRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Access tokens are encrypted at rest
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	itemRepo := postgres.NewItemRepository(db, encryptor)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Aggregator client with retry on transient provider errors
	client := aggregator.NewClient(cfg.Aggregator.BaseURL, cfg.Aggregator.ClientID, cfg.Aggregator.Secret)
	api := aggregator.NewRetry(client)

	// Push messaging is optional; without credentials notifications
	// are still recorded, just never delivered.
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, notificationRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: Failed to initialize Firebase messaging: %v", err)
		} else {
			messenger = fcm
			log.Println("Firebase messaging initialized")
		}
	}
	notificationService := notification.NewService(notificationRepo, messenger)

	// Sync engine
	accounts := sync.NewAccountReconciler(api, accountRepo)
	transactions := sync.NewTransactionReconciler(api, accountRepo, transactionRepo)
	transactions.ConfigureWindows(cfg.Sync.Cooldown, cfg.Sync.CatchupWindow, cfg.Sync.IncrementalWindow)

	lifecycle := sync.NewLifecycle(api, itemRepo, accountRepo, notificationService)
	locker := postgres.NewSyncLock(db)
	orchestrator := sync.NewOrchestrator(accounts, transactions, itemRepo, locker, lifecycle)

	// Webhook pipeline
	verifier := webhook.NewVerifier(cfg.Webhook.Secret)
	ingestor := webhook.NewIngestor(itemRepo, orchestrator, transactions, lifecycle, notificationService)

	// Initialize auth components
	jwt := auth.NewJWT(cfg.JWT.Secret)

	// Initialize handlers
	accountService := account.NewService(accountRepo)

	return &Dependencies{
		DB:                  db,
		AuthHandler:         httphandlers.NewAuthHandler(userRepo, jwt),
		UserHandler:         httphandlers.NewUserHandler(userRepo),
		AccountHandler:      httphandlers.NewAccountHandler(accountService),
		TransactionHandler:  httphandlers.NewTransactionHandler(transactionRepo, accountRepo),
		LinkHandler:         httphandlers.NewLinkHandler(api, itemRepo, orchestrator, lifecycle),
		SyncHandler:         httphandlers.NewSyncHandler(orchestrator, itemRepo),
		WebhookHandler:      httphandlers.NewWebhookHandler(verifier, ingestor),
		NotificationHandler: httphandlers.NewNotificationHandler(notificationService),
		JWT:                 jwt,
		Orchestrator:        orchestrator,
		NotificationService: notificationService,
		UserRepo:            userRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
