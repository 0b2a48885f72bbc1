package httpmiddleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NetworkPolicy decides whether a request may reach report and registration
// routes. reason names what failed, e.g. "IP address".
type NetworkPolicy interface {
	Authorize(r *http.Request) (ok bool, reason string)
}

// AllowAll is the policy used when no network restriction is deployed.
type AllowAll struct{}

// Authorize always admits the request.
func (AllowAll) Authorize(*http.Request) (bool, string) { return true, "" }

// PolicyFunc adapts a function to NetworkPolicy.
type PolicyFunc func(r *http.Request) (bool, string)

// Authorize calls f.
func (f PolicyFunc) Authorize(r *http.Request) (bool, string) { return f(r) }

// RequireNetworkPolicy aborts with 403 when the policy refuses the request.
func RequireNetworkPolicy(p NetworkPolicy) gin.HandlerFunc {
	if p == nil {
		p = AllowAll{}
	}
	return func(c *gin.Context) {
		if ok, reason := p.Authorize(c.Request); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access Denied: Invalid " + reason})
			return
		}
		c.Next()
	}
}
