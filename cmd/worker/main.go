package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"staffsuite/internal/attendance"
	"staffsuite/internal/audit"
	"staffsuite/internal/config"
	"staffsuite/internal/faceclient"
	"staffsuite/internal/faceclock"
	"staffsuite/internal/queue"
	"staffsuite/internal/records"
	"staffsuite/internal/staff"
	"staffsuite/internal/store"
)

// Worker consumes face clock jobs, identifies the face and appends the
// attendance record.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend == "memory" {
		log.Fatalf("QUEUE_BACKEND=memory only works inside cmd/api; use redis for the worker")
	}

	redisClient := store.NewRedis(store.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer redisClient.Close()
	recordStore := records.NewStore(redisClient).WithAuditor(audit.Logger{})
	if !recordStore.Healthy(ctx) {
		log.Printf("WARNING: redis at %s not reachable yet", cfg.RedisAddr)
	}

	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip, cfg.EmbeddingDim)

	// Check face service health on startup
	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Printf("WARNING: Face service not available: %v", err)
			log.Println("Worker will retry face processing when jobs arrive")
		} else {
			log.Println("Face service connected")
		}
	}

	proc := &faceclock.Processor{
		Face: face,
		Staff: staff.NewService(recordStore, staff.Options{
			Dim:    cfg.EmbeddingDim,
			Roles:  cfg.StaffRoles,
			Zones:  cfg.StaffZones,
			Policy: cfg.DecodePolicy,
		}),
		Attendance: attendance.NewService(recordStore, cfg.Location, cfg.DecodePolicy),
		Threshold:  cfg.FaceMatchThreshold,
	}

	messages, err := queue.NewRedisQueue(redisClient, queue.DefaultKey).Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if _, err := proc.Handle(ctx, msg); err != nil {
			log.Printf("face clock failed: %v", err)
		}
	}

	log.Println("worker stopped")
}
