package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"staffsuite/internal/cloudinary"
)

type uploadSource struct {
	data     []byte
	filename string
	dataURL  string
}

// upload hosts one image and returns its URL. It writes the error response
// itself and reports false on failure.
func (h *Handler) upload(c *gin.Context, src uploadSource) (string, bool) {
	if !h.Cloud.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return "", false
	}
	res, err := h.Cloud.Upload(c.Request.Context(), cloudinary.Image{
		Data:     src.data,
		Filename: src.filename,
		DataURL:  src.dataURL,
	})
	if err != nil {
		if errors.Is(err, cloudinary.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
			return "", false
		}
		log.Printf("cloudinary upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return "", false
	}
	return res.SecureURL, true
}

// Upload hosts a multipart file or a JSON {"data": "<base64 data URL>"}.
func (h *Handler) Upload(c *gin.Context) {
	var src uploadSource
	if strings.Contains(c.ContentType(), "multipart/form-data") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		src = uploadSource{data: data, filename: header.Filename}
	} else {
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
			return
		}
		src = uploadSource{dataURL: body.Data}
	}

	url, ok := h.upload(c, src)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
