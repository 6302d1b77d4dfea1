package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/boxfleet/boxfleet/internal/auth"
	"github.com/boxfleet/boxfleet/internal/compute"
	"github.com/boxfleet/boxfleet/internal/config"
	"github.com/boxfleet/boxfleet/internal/handler"
	"github.com/boxfleet/boxfleet/internal/keys"
	"github.com/boxfleet/boxfleet/internal/lifecycle"
	"github.com/boxfleet/boxfleet/internal/logx"
	"github.com/boxfleet/boxfleet/internal/service"
	"github.com/boxfleet/boxfleet/internal/store"
)

func main() {
	logger, closeLogger, err := logx.Init("boxfleetd")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if err := closeLogger(); err != nil {
			slog.Error("failed to close logger", "error", err)
		}
	}()

	stdLog := slog.NewLogLogger(logger.Handler(), slog.LevelInfo)
	log.SetFlags(0)
	log.SetOutput(stdLog.Writer())

	cfg, err := config.Load(os.Getenv("BOXFLEET_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "boxfleet.db")
	slog.Info("initializing database", "component", "store", "db_path", dbPath)
	if err := store.InitDB(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.CloseDB()

	provider, err := compute.NewKubeProvider(cfg.Kubeconfig, cfg.Namespace)
	if err != nil {
		log.Fatalf("Failed to create compute provider: %v", err)
	}

	ctx := context.Background()
	if err := provider.EnsureNamespace(ctx); err != nil {
		log.Fatalf("Failed to ensure namespace: %v", err)
	}
	slog.Info("box namespace ensured", "component", "compute", "namespace", cfg.Namespace)

	aliases := store.NewAliasStore()
	apiKeys := store.NewAPIKeyStore()
	for owner, token := range cfg.Credentials() {
		if err := apiKeys.Put(ctx, owner, token); err != nil {
			log.Fatalf("Failed to seed api key for %s: %v", owner, err)
		}
	}
	directory := service.NewDirectory(provider)
	lc := service.NewLifecycle(provider, directory, aliases, keys.NewGitHubFetcher())
	lc.SetDefaultTTL(cfg.DefaultTTL)

	drainState := lifecycle.NewDrainManager()
	reaper := service.NewReaper(provider, directory, drainState)
	reaper.Start(ctx, cfg.ReapInterval)
	slog.Info("reaper started", "component", "reaper", "interval", cfg.ReapInterval.String())

	boxHandler := handler.NewBoxHandler(directory, lc)
	aliasHandler := handler.NewAliasHandler(aliases)
	reapHandler := handler.NewReapHandler(reaper)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logx.RequestIDMiddleware())
	r.Use(logx.AccessLogMiddleware("api_http"))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(func(c *gin.Context) {
		if drainState.IsDraining() && c.Request.URL.Path != "/health" && c.Request.URL.Path != "/readyz" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service is draining"})
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if drainState.IsDraining() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "draining"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := r.Group("/", auth.Middleware(apiKeys))
	boxHandler.RegisterRoutes(authed)
	aliasHandler.RegisterRoutes(authed)

	reap := r.Group("/", auth.ReaperTokenMiddleware(cfg.ReaperToken))
	reapHandler.RegisterRoutes(reap)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api server starting", "component", "http_server", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down API server...")

	drainState.StartDraining()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer drainCancel()
	if err := drainState.WaitSweeps(drainCtx); err != nil {
		log.Printf("Drained with timeout, remaining active sweeps: %d", drainState.ActiveSweeps())
	}

	log.Println("API server stopped")
}
