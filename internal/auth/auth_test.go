package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"staffsuite/internal/records"
	"staffsuite/internal/session"
)

func testCredentials(t *testing.T) *Credentials {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	creds, err := ParseCredentials([]byte(`
credentials:
  usernames:
    jsmith:
      name: John Smith
      email: jsmith@example.com
      password: "` + string(hash) + `"
cookie:
  key: signing-key
`))
	require.NoError(t, err)
	return creds
}

func TestParseCredentialsDefaults(t *testing.T) {
	creds := testCredentials(t)
	assert.Equal(t, "staffsuite_session", creds.Cookie.Name)
	assert.Equal(t, 30*24*time.Hour, creds.TTL())

	_, err := ParseCredentials([]byte("credentials: {}\n"))
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	creds := testCredentials(t)

	u, err := creds.Authenticate("jsmith", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "John Smith", u.Name)

	_, err = creds.Authenticate("jsmith", "wrong")
	assert.True(t, errors.Is(err, ErrBadCredentials))
	_, err = creds.Authenticate("nobody", "s3cret")
	assert.True(t, errors.Is(err, ErrBadCredentials))
}

func TestIssueParse(t *testing.T) {
	tok, err := Issue("jsmith", "John Smith", "staffsuite", "k", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok.Value, "k", "staffsuite")
	require.NoError(t, err)
	assert.Equal(t, "jsmith", claims.Subject)
	assert.Equal(t, "John Smith", claims.Name)

	_, err = Parse(tok.Value, "other", "staffsuite")
	assert.Error(t, err)
	_, err = Parse(tok.Value, "k", "someone-else")
	assert.Error(t, err)

	expired, err := Issue("jsmith", "John Smith", "staffsuite", "k", -time.Minute)
	require.NoError(t, err)
	_, err = Parse(expired.Value, "k", "staffsuite")
	assert.Error(t, err)
}

func TestRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireSession("sess", "k", "staffsuite"))
	r.GET("/me", func(c *gin.Context) {
		s := session.From(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": s.Username, "actor": records.ActorFrom(c.Request.Context())})
	})

	tok, err := Issue("jsmith", "John Smith", "staffsuite", "k", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"jsmith","actor":"jsmith"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: tok.Value})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
