package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"staffsuite/internal/duty"
	"staffsuite/internal/report"
)

type dutyRequest struct {
	OfficerRole string            `json:"officer_role" binding:"required"`
	DutyType    string            `json:"duty_type" binding:"required"`
	Timestamp   time.Time         `json:"timestamp"`
	Extra       map[string]string `json:"extra"`
}

func (h *Handler) SubmitDuty(c *gin.Context) {
	var req dutyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rep, err := h.Duty.Submit(c.Request.Context(), duty.Report{
		OfficerRole: req.OfficerRole,
		DutyType:    req.DutyType,
		Timestamp:   req.Timestamp,
		Extra:       req.Extra,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rep)
}

// ListDuty is the duty report view, newest first.
func (h *Handler) ListDuty(c *gin.Context) {
	date := c.Query("date")
	if _, err := report.ParseDateRange(date, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Duty.Load(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	loc := h.Duty.Location()
	reps := duty.Filter{
		OfficerRole: c.Query("officer_role"),
		DutyType:    c.Query("duty_type"),
		Date:        date,
	}.Apply(res.Records, loc)

	if wantsCSV(c) {
		writeCSV(c, "duty-reports", duty.Table(reps, loc))
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": reps, "total": len(reps), "skipped": res.Skipped})
}

func (h *Handler) DeleteDuty(c *gin.Context) {
	n, err := h.Duty.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func (h *Handler) ClearDuty(c *gin.Context) {
	if !confirmed(c) {
		return
	}
	n, err := h.Duty.Clear(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
