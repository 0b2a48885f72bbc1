package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"staffsuite/internal/records"
	"staffsuite/internal/session"
)

// RequireSession accepts a bearer token or the session cookie, and puts the
// typed session on the request context. Requests without a valid token stop
// with 401.
func RequireSession(cookieName, signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""
		if authz := c.GetHeader("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			tokenStr = strings.TrimSpace(authz[len("bearer "):])
		} else if ck, err := c.Cookie(cookieName); err == nil {
			tokenStr = ck
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please enter your username and password"})
			return
		}
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		s := session.Session{
			Username:      claims.Subject,
			Name:          claims.Name,
			Authenticated: true,
		}
		if claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Time.UTC().Truncate(time.Second)
		}
		ctx := session.With(c.Request.Context(), s)
		ctx = records.WithActor(ctx, s.Actor())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
