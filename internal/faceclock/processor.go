// Package faceclock resolves queued face clock jobs into attendance records.
package faceclock

import (
	"context"
	"errors"
	"fmt"
	"log"

	"staffsuite/internal/attendance"
	"staffsuite/internal/faceclient"
	"staffsuite/internal/metrics"
	"staffsuite/internal/queue"
	"staffsuite/internal/records"
	"staffsuite/internal/staff"
)

// Outcomes, also used as the metric label.
const (
	Clocked   = "clocked"
	Unmatched = "unmatched"
	NoFace    = "no_face"
	Invalid   = "invalid"
	Failed    = "failed"
)

// Embedder extracts a face feature vector from a hosted image.
type Embedder interface {
	Embed(ctx context.Context, imageURL string) (*faceclient.EmbedResult, error)
}

// Result describes how one job ended.
type Result struct {
	Outcome string
	Score   float64
	Record  attendance.Record
}

// Processor matches the face in each job against the staff registry and
// clocks the best match.
type Processor struct {
	Face       Embedder
	Staff      *staff.Service
	Attendance *attendance.Service
	Threshold  float64
}

// Handle processes one queue message. The error is non-nil only for
// Failed outcomes; misses are reported through Result.
func (p *Processor) Handle(ctx context.Context, msg queue.Message) (Result, error) {
	res, err := p.handle(ctx, msg)
	metrics.FaceClockProcessed.WithLabelValues(res.Outcome).Inc()
	return res, err
}

func (p *Processor) handle(ctx context.Context, msg queue.Message) (Result, error) {
	job, err := msg.FaceClockJob()
	if err != nil {
		log.Printf("face clock: %v", err)
		return Result{Outcome: Invalid}, nil
	}

	emb, err := p.Face.Embed(ctx, job.ImageURL)
	if errors.Is(err, faceclient.ErrNoFace) {
		log.Printf("face clock %s: no face detected", job.ImageURL)
		return Result{Outcome: NoFace}, nil
	}
	if err != nil {
		return Result{Outcome: Failed}, fmt.Errorf("embed %s: %w", job.ImageURL, err)
	}

	registry, err := p.Staff.Load(ctx)
	if err != nil {
		return Result{Outcome: Failed}, err
	}
	best, score, ok := staff.Match(registry.Records, emb.Embedding, p.Threshold)
	if !ok {
		log.Printf("face clock %s: no registered staff above %.2f (best %.2f)", job.ImageURL, p.Threshold, score)
		return Result{Outcome: Unmatched, Score: score}, nil
	}

	zone := job.Zone
	if zone == "" {
		zone = best.Zone
	}
	if job.Actor != "" {
		ctx = records.WithActor(ctx, job.Actor)
	}
	rec, err := p.Attendance.Clock(ctx, attendance.Clock{
		FileNo:    best.FileNo,
		Name:      best.Name,
		Role:      best.Role,
		Direction: job.Direction,
		Zone:      zone,
	})
	if err != nil {
		if errors.Is(err, records.ErrValidation) {
			log.Printf("face clock %s: %v", job.ImageURL, err)
			return Result{Outcome: Invalid, Score: score}, nil
		}
		return Result{Outcome: Failed, Score: score}, err
	}
	log.Printf("face clock: %s %s %s (score %.2f)", rec.FileNo, rec.Name, rec.Direction, score)
	return Result{Outcome: Clocked, Score: score, Record: rec}, nil
}
