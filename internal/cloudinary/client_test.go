package cloudinary

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSignsAndSends(t *testing.T) {
	var gotPath, gotSig, gotFolder, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotSig = r.FormValue("signature")
		gotFolder = r.FormValue("folder")
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		gotFile = string(b)
		_, _ = w.Write([]byte(`{"public_id":"staff/abc","secure_url":"https://res/abc.jpg"}`))
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "staff")
	c.BaseURL = srv.URL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	res, err := c.Upload(context.Background(), Image{Data: []byte("jpegbytes"), Filename: "a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://res/abc.jpg", res.SecureURL)
	assert.Equal(t, "/demo/image/upload", gotPath)
	assert.Equal(t, "staff", gotFolder)
	assert.Equal(t, "jpegbytes", gotFile)

	want := fmt.Sprintf("%x", sha1.Sum([]byte("folder=staff&timestamp=1700000000secret")))
	assert.Equal(t, want, gotSig)
}

func TestUploadErrors(t *testing.T) {
	_, err := New("", "", "", "").Upload(context.Background(), Image{Data: []byte("x")})
	assert.True(t, errors.Is(err, ErrNotConfigured))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad"}`, http.StatusBadRequest)
	}))
	defer srv.Close()
	c := New("demo", "key", "secret", "")
	c.BaseURL = srv.URL

	_, err = c.Upload(context.Background(), Image{})
	assert.Error(t, err)
	_, err = c.Upload(context.Background(), Image{DataURL: "data:image/jpeg;base64,AAAA"})
	assert.Error(t, err)
}
