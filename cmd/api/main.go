package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"trainingdesk/internal/config"
	"trainingdesk/internal/database"
	"trainingdesk/internal/domain/machine"
	"trainingdesk/internal/domain/session"
	"trainingdesk/internal/domain/settings"
	"trainingdesk/internal/domain/subscription"
	"trainingdesk/internal/events"
	"trainingdesk/internal/middleware"
	jwtsvc "trainingdesk/internal/pkg/jwt"
	"trainingdesk/internal/realtime"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("dotenv_load_failed error=%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, database.Options{MaxOpenConns: cfg.MaxOpenConns})
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("db migrate failed: %v", err)
		}
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTIssuer)

	hub := realtime.NewHub()
	sinks := []session.EventSink{hub}

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher = events.NewPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		sinks = append(sinks, publisher)
	}

	settingsRepo := settings.NewRepository(db)
	machineRepo := machine.NewRepository(db)
	subscriptionRepo := subscription.NewRepository(db)

	sessionService := session.NewService(session.NewStore(db), settingsRepo, sinks...)

	sessionHandler := session.NewHandler(sessionService)
	machineHandler := machine.NewHandler(machineRepo)
	subscriptionHandler := subscription.NewHandler(subscriptionRepo)
	wsHandler := realtime.NewHandler(hub, j, cfg.CORSOrigins)

	r := gin.New()
	r.Use(gin.Logger(), middleware.RequestID(), middleware.ErrorLogger(), middleware.CORS(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ws_clients": hub.Clients()})
	})

	v1 := r.Group("/api/v1")
	{
		// websocket authenticates via ?token=
		wsHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j))
		{
			sessionHandler.RegisterRoutes(protected)
			machineHandler.RegisterRoutes(protected)
			subscriptionHandler.RegisterRoutes(protected)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("server_started addr=%s env=%s", srv.Addr, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server_shutdown_failed error=%v", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Printf("amqp_close_failed error=%v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("server_stopped")
}
