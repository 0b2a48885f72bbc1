package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"staffsuite/internal/api"
	"staffsuite/internal/attendance"
	"staffsuite/internal/audit"
	"staffsuite/internal/auth"
	"staffsuite/internal/cloudinary"
	"staffsuite/internal/config"
	"staffsuite/internal/duty"
	"staffsuite/internal/faceclient"
	"staffsuite/internal/httpmiddleware"
	"staffsuite/internal/movement"
	"staffsuite/internal/queue"
	"staffsuite/internal/records"
	"staffsuite/internal/staff"
	"staffsuite/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	creds, err := auth.LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		return err
	}

	redisClient := store.NewRedis(store.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer redisClient.Close()
	recordStore := records.NewStore(redisClient)

	var auditRepo *audit.Repository
	if cfg.DatabaseURL != "" {
		db, err := store.NewDB(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Printf("warning: db not reachable, audit trail goes to the log: %v", err)
			_ = db.Close()
			recordStore.WithAuditor(audit.Logger{})
		} else {
			defer db.Close()
			auditRepo = audit.NewRepository(db.Client)
			if err := auditRepo.Migrate(context.Background()); err != nil {
				return err
			}
			recordStore.WithAuditor(auditRepo)
		}
	} else {
		recordStore.WithAuditor(audit.Logger{})
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
		log.Println("warning: in-memory queue, face clock jobs are not seen by cmd/worker")
	} else {
		q = queue.NewRedisQueue(redisClient, queue.DefaultKey)
	}

	// Cloudinary client (disabled when not configured)
	cdnClient := cloudinary.New(cfg.CloudinaryCloud, cfg.CloudinaryKey, cfg.CloudinarySecret, cfg.CloudinaryFolder)
	if cdnClient.Enabled() {
		log.Println("Cloudinary configured:", cfg.CloudinaryCloud)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	h := api.New(api.Deps{
		Store:      recordStore,
		Attendance: attendance.NewService(recordStore, cfg.Location, cfg.DecodePolicy),
		Movements:  movement.NewService(recordStore, cfg.Location, cfg.DecodePolicy),
		Duty:       duty.NewService(recordStore, cfg.Location, cfg.DecodePolicy),
		Staff: staff.NewService(recordStore, staff.Options{
			Dim:        cfg.EmbeddingDim,
			Roles:      cfg.StaffRoles,
			Zones:      cfg.StaffZones,
			CaptureTTL: cfg.CaptureTTL,
			Policy:     cfg.DecodePolicy,
		}),
		Queue:       q,
		Cloud:       cdnClient,
		Face:        faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip, cfg.EmbeddingDim),
		Credentials: creds,
		Issuer:      cfg.JWTIssuer,
		Audit:       auditRepo,
	})
	r := api.NewRouter(h, api.RouterConfig{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Policy:          httpmiddleware.AllowAll{},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
