package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"staffsuite/internal/faceclient"
	"staffsuite/internal/records"
	"staffsuite/internal/staff"
)

// ListStaff returns the registry plus the selectable roles and zones.
// format=csv&features=true exports the full backup including vectors.
func (h *Handler) ListStaff(c *gin.Context) {
	res, err := h.Staff.Load(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	all := staff.Filter{Zone: c.Query("zone"), Role: c.Query("role")}.Apply(res.Records)
	if wantsCSV(c) {
		writeCSV(c, "staff", staff.Table(all, c.Query("features") == "true"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"staff":   all,
		"total":   len(all),
		"skipped": res.Skipped,
		"roles":   h.Staff.Roles(),
		"zones":   h.Staff.Zones(),
	})
}

// StartCapture opens a face capture session for a registration.
func (h *Handler) StartCapture(c *gin.Context) {
	id := h.Staff.StartCapture(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"capture_id": id, "dim": h.Staff.Dim()})
}

type sampleRequest struct {
	Embedding []float32 `json:"embedding"`
	ImageURL  string    `json:"image_url"`
	Data      string    `json:"data"`
}

// AddSample adds one captured frame to a session. The frame is either an
// embedding computed client side, or an image the face service embeds.
func (h *Handler) AddSample(c *gin.Context) {
	var req sampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vec := req.Embedding
	if len(vec) == 0 {
		imageURL := req.ImageURL
		if imageURL == "" && req.Data != "" {
			url, ok := h.upload(c, uploadSource{dataURL: req.Data})
			if !ok {
				return
			}
			imageURL = url
		}
		if imageURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide embedding, image_url or data"})
			return
		}
		res, err := h.Face.Embed(c.Request.Context(), imageURL)
		if err != nil {
			if errors.Is(err, faceclient.ErrNoFace) {
				fail(c, records.Invalid("image", "no face detected, try again"))
				return
			}
			log.Printf("face embed failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "face service unavailable"})
			return
		}
		vec = res.Embedding
	}

	n, err := h.Staff.AddSample(c.Request.Context(), c.Param("id"), vec)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"capture_id": c.Param("id"), "samples": n})
}

type registerRequest struct {
	FileNo    string `json:"file_number" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Role      string `json:"role" binding:"required"`
	Zone      string `json:"zone" binding:"required"`
	CaptureID string `json:"capture_id" binding:"required"`
}

// RegisterStaff stores a staff member with the mean of their capture.
func (h *Handler) RegisterStaff(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.Staff.Register(c.Request.Context(), staff.Registration{
		FileNo:    req.FileNo,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Zone:      req.Zone,
		CaptureID: req.CaptureID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

type deleteStaffRequest struct {
	Keys []string `json:"keys" binding:"required,min=1"`
}

// DeleteStaff removes the selected registry entries one by one. On a store
// failure the outcomes so far are returned with the error.
func (h *Handler) DeleteStaff(c *gin.Context) {
	var req deleteStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Staff.Delete(c.Request.Context(), req.Keys)
	if err != nil {
		log.Printf("staff delete stopped after %d of %d: %v", len(res.Outcomes), len(req.Keys), err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Redis connection error: record store unreachable", "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ClearStaff(c *gin.Context) {
	if !confirmed(c) {
		return
	}
	n, err := h.Staff.Clear(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
