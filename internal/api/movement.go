package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"staffsuite/internal/movement"
	"staffsuite/internal/report"
)

type movementRequest struct {
	Name         string    `json:"name" binding:"required"`
	Role         string    `json:"role" binding:"required"`
	MovementType string    `json:"movement_type" binding:"required"`
	Purpose      string    `json:"purpose"`
	Location     string    `json:"location"`
	Note         string    `json:"note"`
	Timestamp    time.Time `json:"timestamp"`
}

func (h *Handler) LogMovement(c *gin.Context) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.Movements.Log(c.Request.Context(), movement.Record{
		Name:         req.Name,
		Role:         req.Role,
		MovementType: req.MovementType,
		Purpose:      req.Purpose,
		Location:     req.Location,
		Note:         req.Note,
		Timestamp:    req.Timestamp,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ListMovements is the movement report, newest first. The response also
// carries the distinct filter values seen in the unfiltered log.
func (h *Handler) ListMovements(c *gin.Context) {
	date := c.Query("date")
	if _, err := report.ParseDateRange(date, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Movements.Load(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	loc := h.Movements.Location()
	recs := movement.Filter{
		Name:         c.Query("name"),
		MovementType: c.Query("movement_type"),
		Date:         date,
	}.Apply(res.Records, loc)

	if wantsCSV(c) {
		writeCSV(c, "movements", movement.Table(recs, loc))
		return
	}
	names, types, dates := movement.Options(res.Records, loc)
	c.JSON(http.StatusOK, gin.H{
		"records": recs,
		"total":   len(recs),
		"skipped": res.Skipped,
		"options": gin.H{"names": names, "movement_types": types, "dates": dates},
	})
}

func (h *Handler) DeleteMovementRecord(c *gin.Context) {
	var req deleteRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.Movements.Delete(c.Request.Context(), req.Raw, deleteMode(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func (h *Handler) ClearMovements(c *gin.Context) {
	if !confirmed(c) {
		return
	}
	n, err := h.Movements.Clear(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
