package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"finlink/internal/interfaces/scheduler"
	"finlink/internal/shared/config"
	"finlink/internal/shared/middleware"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 15 * time.Second
	idleTimeout  = 60 * time.Second
)

// ServerConfig holds everything StartServers needs to bring the HTTP
// front end up.
type ServerConfig struct {
	Handler      http.Handler
	Addr         string
	TLSEnabled   bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
	AllowedHosts []string
}

// NewServerConfigFromConfig maps the application config onto a ServerConfig.
func NewServerConfigFromConfig(handler http.Handler, cfg *config.Config) ServerConfig {
	return ServerConfig{
		Handler:      handler,
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		TLSEnabled:   cfg.TLS.Enabled,
		CertPath:     cfg.TLS.CertPath,
		KeyPath:      cfg.TLS.KeyPath,
		RedirectHTTP: cfg.TLS.RedirectHTTP,
		AllowedHosts: cfg.Server.AllowedHosts,
	}
}

// StartServers launches the API server and, when TLS with redirect is
// on, a plain-HTTP listener on :80 that bounces everything to HTTPS.
// Both run in background goroutines; the second return value is nil
// when no redirect server was started.
func StartServers(scfg ServerConfig) (*http.Server, *http.Server) {
	srv := &http.Server{
		Addr:         scfg.Addr,
		Handler:      scfg.Handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	var redirectSrv *http.Server
	if scfg.TLSEnabled && scfg.RedirectHTTP {
		redirectSrv = newRedirectServer(scfg.AllowedHosts)
		go func() {
			log.Println("HTTP redirect server listening on :80")
			if err := redirectSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("HTTP redirect server error: %v", err)
			}
		}()
	}

	go func() {
		var err error
		if scfg.TLSEnabled {
			log.Printf("HTTPS server listening on %s", scfg.Addr)
			err = srv.ListenAndServeTLS(scfg.CertPath, scfg.KeyPath)
		} else {
			log.Printf("HTTP server listening on %s", scfg.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	return srv, redirectSrv
}

// GracefulShutdown drains the scheduler first so no new syncs start,
// then shuts the listeners down within the timeout.
func GracefulShutdown(srv, redirectSrv *http.Server, sched *scheduler.Scheduler, timeout time.Duration) {
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if sched != nil {
		sched.Shutdown(timeout)
	}

	if redirectSrv != nil {
		if err := redirectSrv.Shutdown(ctx); err != nil {
			log.Printf("Redirect server shutdown error: %v", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// newRedirectServer builds the :80 listener that 301s to HTTPS. The
// Host header is validated against the allow list first so the
// redirect can't be pointed at an attacker-chosen host.
func newRedirectServer(allowedHosts []string) *http.Server {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Header.Get("X-Forwarded-Host")
		if host == "" {
			host = r.Host
		}

		if !middleware.IsHostAllowed(host, allowedHosts) {
			http.Error(w, "Invalid host", http.StatusBadRequest)
			return
		}

		if idx := strings.Index(host, ":"); idx != -1 {
			host = host[:idx]
		}

		http.Redirect(w, r, "https://"+host+r.RequestURI, http.StatusMovedPermanently)
	})

	return &http.Server{
		Addr:         ":80",
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}
