package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/collegelover/college-lover-api/config"
	"github.com/collegelover/college-lover-api/middleware"
	"github.com/collegelover/college-lover-api/routes"
	"github.com/collegelover/college-lover-api/services"
	"github.com/collegelover/college-lover-api/utils"
	"github.com/collegelover/college-lover-api/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := config.NewLogger(cfg)

	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer func() {
		if err := config.CloseDB(db); err != nil {
			log.WithError(err).Warn("close database")
		}
	}()

	ctx := context.Background()
	metrics, err := middleware.NewMetrics(db)
	if err != nil {
		log.WithError(err).Fatal("register metrics")
	}

	deps := routes.Dependencies{
		Config:   cfg,
		DB:       db,
		Logger:   log,
		Verifier: newVerifier(ctx, cfg, log),
		Metrics:  metrics,
		Hub:      ws.NewHub(log),
	}
	if cfg.Supabase.URL != "" && cfg.Supabase.Key != "" {
		deps.Storage = utils.NewSupabaseStorage(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket)
	} else {
		log.Warn("SUPABASE_URL/SUPABASE_KEY not set, file uploads disabled")
	}
	if cfg.SMTP.Host != "" && cfg.SMTP.Email != "" {
		deps.Mailer = utils.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Email, cfg.SMTP.Password)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	routes.SetupRouter(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func newVerifier(ctx context.Context, cfg *config.Config, log *logrus.Logger) services.IdentityVerifier {
	switch cfg.Identity.Backend {
	case "google":
		if cfg.Identity.GoogleClientID == "" {
			log.Warn("GOOGLE_CLIENT_ID not set, social sign-in disabled")
			return services.DisabledVerifier{}
		}
		return services.NewGoogleVerifier(cfg.Identity.GoogleClientID)
	default:
		if cfg.Identity.FirebaseProjectID == "" {
			log.Warn("FIREBASE_PROJECT_ID not set, social sign-in disabled")
			return services.DisabledVerifier{}
		}
		v, err := services.NewFirebaseVerifier(ctx, cfg.Identity.FirebaseProjectID, cfg.Identity.FirebaseCredential)
		if err != nil {
			log.WithError(err).Warn("firebase init failed, social sign-in disabled")
			return services.DisabledVerifier{}
		}
		return v
	}
}
