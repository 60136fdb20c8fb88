package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finlink/internal/interfaces/scheduler"
	"finlink/internal/shared/config"
	"finlink/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize telemetry (if enabled)
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  getEnvironment(),
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  "9090",
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize telemetry: %v", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Printf("Error shutting down telemetry: %v", err)
				}
			}()
		}
	}

	// Initialize dependencies
	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Initialize scheduler (if enabled)
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Println("Initializing scheduler...")
		sched, err = scheduler.New(scheduler.Config{
			ScheduleTimes: cfg.Scheduler.ScheduleTimes,
			WorkerCount:   cfg.Scheduler.WorkerCount,
			JobDelay:      cfg.Scheduler.JobDelay,
			QueueSize:     cfg.Scheduler.QueueSize,
			RunOnStartup:  cfg.Scheduler.RunOnStartup,
			JobProvider:   syncJobProvider(deps),
		})
		if err != nil {
			return err
		}

		sched.Start()
		log.Printf("Scheduler started with times: %v", cfg.Scheduler.ScheduleTimes)
	} else {
		log.Println("Scheduler is disabled")
	}

	// Set up routes and start servers
	handler := SetupRoutes(deps, cfg)
	srv, redirectSrv := StartServers(NewServerConfigFromConfig(handler, cfg))

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	GracefulShutdown(srv, redirectSrv, sched, 30*time.Second)
	return nil
}

// syncJobProvider builds one incremental sync job per registered
// user. Skips nothing; the sync engine's own locks and cooldowns keep
// redundant work cheap.
func syncJobProvider(deps *Dependencies) func(context.Context) ([]scheduler.Job, error) {
	return func(ctx context.Context) ([]scheduler.Job, error) {
		users, err := deps.UserRepo.List(ctx)
		if err != nil {
			return nil, err
		}

		jobs := make([]scheduler.Job, 0, len(users))
		for _, u := range users {
			jobs = append(jobs, scheduler.NewUserSyncJob(u.ID, deps.Orchestrator, deps.NotificationService))
		}
		return jobs, nil
	}
}

func getEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}
