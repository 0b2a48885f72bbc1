package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"staffsuite/internal/attendance"
	"staffsuite/internal/queue"
	"staffsuite/internal/records"
	"staffsuite/internal/report"
)

type clockRequest struct {
	FileNo    string    `json:"file_no" binding:"required"`
	Name      string    `json:"name" binding:"required"`
	Role      string    `json:"role" binding:"required"`
	Direction string    `json:"clock_in_out" binding:"required"`
	Zone      string    `json:"zone"`
	Timestamp time.Time `json:"timestamp"`
}

// Clock records a clock-in or clock-out.
func (h *Handler) Clock(c *gin.Context) {
	var req clockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.Attendance.Clock(c.Request.Context(), attendance.Clock{
		FileNo:    req.FileNo,
		Name:      req.Name,
		Role:      req.Role,
		Direction: req.Direction,
		Zone:      req.Zone,
		At:        req.Timestamp,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// attendanceView loads the log and applies the query filter shared by the
// report and the dashboard.
func (h *Handler) attendanceView(c *gin.Context) ([]attendance.Record, int, bool) {
	dates, err := report.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, 0, false
	}
	res, err := h.Attendance.Load(c.Request.Context())
	if err != nil {
		fail(c, err)
		return nil, 0, false
	}
	f := attendance.Filter{
		Dates:  dates,
		Zone:   c.Query("zone"),
		Roles:  c.QueryArray("role"),
		FileNo: c.Query("file_no"),
	}
	return f.Apply(res.Records, h.Attendance.Location()), res.Skipped, true
}

// ListAttendance is the attendance report. format=csv downloads the
// filtered rows.
func (h *Handler) ListAttendance(c *gin.Context) {
	recs, skipped, ok := h.attendanceView(c)
	if !ok {
		return
	}
	if wantsCSV(c) {
		writeCSV(c, "attendance", attendance.Table(recs, h.Attendance.Location()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs, "total": len(recs), "skipped": skipped})
}

// Dashboard returns KPIs and pivots over the filtered log.
func (h *Handler) Dashboard(c *gin.Context) {
	recs, skipped, ok := h.attendanceView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": attendance.Summarize(recs, h.Attendance.Location()),
		"skipped": skipped,
	})
}

type deleteRecordRequest struct {
	Raw string `json:"raw" binding:"required"`
}

// DeleteAttendanceRecord removes one stored record by its literal string.
func (h *Handler) DeleteAttendanceRecord(c *gin.Context) {
	var req deleteRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.Attendance.Delete(c.Request.Context(), req.Raw, deleteMode(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

// ClearAttendance wipes the attendance log.
func (h *Handler) ClearAttendance(c *gin.Context) {
	if !confirmed(c) {
		return
	}
	n, err := h.Attendance.Clear(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

type faceClockRequest struct {
	ImageURL  string `json:"image_url"`
	Data      string `json:"data"`
	Direction string `json:"clock_in_out" binding:"required"`
	Zone      string `json:"zone"`
}

// FaceClock queues a clock event to be resolved by face recognition. The
// image is either a hosted URL or a base64 data URL uploaded first.
func (h *Handler) FaceClock(c *gin.Context) {
	var req faceClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dir, ok := attendance.NormalizeDirection(req.Direction)
	if !ok {
		fail(c, records.Invalid("clock_in_out", "must be "+attendance.ClockIn+" or "+attendance.ClockOut))
		return
	}

	imageURL := req.ImageURL
	if imageURL == "" {
		if req.Data == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide image_url or data"})
			return
		}
		url, ok := h.upload(c, uploadSource{dataURL: req.Data})
		if !ok {
			return
		}
		imageURL = url
	}

	msg, err := queue.NewFaceClock(queue.FaceClock{
		ImageURL:  imageURL,
		Direction: dir,
		Zone:      req.Zone,
		Actor:     records.ActorFrom(c.Request.Context()),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Queue.Publish(c.Request.Context(), msg); err != nil {
		log.Printf("queue publish failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue unavailable"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "image_url": imageURL})
}
