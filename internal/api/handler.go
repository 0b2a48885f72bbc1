package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"staffsuite/internal/attendance"
	"staffsuite/internal/audit"
	"staffsuite/internal/auth"
	"staffsuite/internal/cloudinary"
	"staffsuite/internal/duty"
	"staffsuite/internal/faceclient"
	"staffsuite/internal/movement"
	"staffsuite/internal/queue"
	"staffsuite/internal/records"
	"staffsuite/internal/report"
	"staffsuite/internal/staff"
)

// Deps are the services the HTTP layer talks to. Cloud and Audit may be nil
// when image hosting or Postgres is not configured.
type Deps struct {
	Store       *records.Store
	Attendance  *attendance.Service
	Movements   *movement.Service
	Duty        *duty.Service
	Staff       *staff.Service
	Queue       queue.Queue
	Cloud       *cloudinary.Client
	Face        *faceclient.Client
	Credentials *auth.Credentials
	Issuer      string
	Audit       *audit.Repository
}

// Handler serves the dashboard API.
type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	return &Handler{Deps: d}
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	redisHealthy := h.Store.Healthy(c.Request.Context())
	status := http.StatusOK
	if !redisHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy})
}

// ---------- helpers ----------

// fail maps store and validation errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	var verr *records.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, records.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, records.ErrDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, records.ErrConnectivity):
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Redis connection error: record store unreachable"})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// wantsCSV reports whether the caller asked for a CSV download.
func wantsCSV(c *gin.Context) bool {
	return strings.EqualFold(c.Query("format"), "csv")
}

// writeCSV streams t as an attachment named name-<date>.csv.
func writeCSV(c *gin.Context, name string, t report.Table) {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().Format(report.DateLayout))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := t.WriteCSV(c.Writer); err != nil {
		log.Printf("csv export %s: %v", name, err)
	}
}

// deleteMode reads ?all=true as DeleteAll.
func deleteMode(c *gin.Context) records.DeleteMode {
	if c.Query("all") == "true" || c.Query("all") == "1" {
		return records.DeleteAll
	}
	return records.DeleteFirst
}

// confirmed guards the clear-all endpoints.
func confirmed(c *gin.Context) bool {
	if c.Query("confirm") == "true" {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "this removes every record; repeat with confirm=true"})
	return false
}
