package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"staffsuite/internal/auth"
	"staffsuite/internal/session"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and issues a session token, both as a cookie and
// in the body for bearer use.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please enter your username and password"})
		return
	}

	u, err := h.Credentials.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		fail(c, err)
		return
	}

	ttl := h.Credentials.TTL()
	tok, err := auth.Issue(req.Username, u.Name, h.Issuer, h.Credentials.Cookie.Key, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Credentials.Cookie.Name, tok.Value, int(ttl.Seconds()), "/", "", gin.Mode() == gin.ReleaseMode, true)
	c.JSON(http.StatusOK, gin.H{
		"access_token": tok.Value,
		"expires_at":   tok.ExpiresAt.Unix(),
		"name":         u.Name,
	})
}

// Logout clears the session cookie. Bearer tokens simply expire.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Credentials.Cookie.Name, "", -1, "/", "", gin.Mode() == gin.ReleaseMode, true)
	c.Status(http.StatusNoContent)
}

// Session returns who is signed in.
func (h *Handler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, session.From(c.Request.Context()))
}
