package main

import (
	"log"
	"net/http"

	httphandlers "finlink/internal/interfaces/http"
	"finlink/internal/shared/config"
	"finlink/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Public auth routes
	mux.HandleFunc("POST /api/auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", deps.AuthHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", deps.AuthHandler.HandleLogout)

	// Provider webhooks (authenticated by signature, not by user)
	mux.HandleFunc("POST /api/webhooks/aggregator", deps.WebhookHandler.HandleWebhook)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/users/me", authMiddleware(http.HandlerFunc(deps.UserHandler.HandleMe)))
	mux.Handle("GET /api/accounts", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleListAccounts)))
	mux.Handle("GET /api/accounts/{id}", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleGetAccount)))
	mux.Handle("GET /api/transactions", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleListTransactions)))
	mux.Handle("GET /api/transactions/{id}", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleGetTransaction)))

	mux.Handle("POST /api/link/token", authMiddleware(http.HandlerFunc(deps.LinkHandler.HandleCreateLinkToken)))
	mux.Handle("POST /api/link/exchange", authMiddleware(http.HandlerFunc(deps.LinkHandler.HandleExchange)))
	mux.Handle("GET /api/items", authMiddleware(http.HandlerFunc(deps.LinkHandler.HandleListItems)))
	mux.Handle("DELETE /api/items/{id}", authMiddleware(http.HandlerFunc(deps.LinkHandler.HandleUnlink)))

	mux.Handle("POST /api/sync", authMiddleware(http.HandlerFunc(deps.SyncHandler.HandleSyncNow)))
	mux.Handle("POST /api/sync/items/{id}", authMiddleware(http.HandlerFunc(deps.SyncHandler.HandleSyncItem)))

	mux.Handle("/api/notifications/register-device", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleRegisterDevice)))
	mux.Handle("/api/notifications/preferences", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandlePreferences)))
	mux.Handle("/api/notifications/open", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleOpen)))
	mux.Handle("/api/notifications/{id}", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleNotificationByID)))
	mux.Handle("/api/notifications", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleNotifications)))

	// Apply global middleware
	handler := middleware.Telemetry(middleware.Tracing(middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux))))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
