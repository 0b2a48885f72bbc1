package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// ErrNoFace means the face service found no face in the image.
var ErrNoFace = errors.New("no face detected in image")

// EmbedResult contains the face embedding and detection confidence.
type EmbedResult struct {
	Embedding     []float32
	Score         float64
	FacesDetected int
}

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
	Dim     int
}

// New creates a client. With skip set no request is made and every image
// maps to a stable pseudo-random unit vector of length dim.
func New(baseURL string, skip bool, dim int) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		Dim:     dim,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // Face processing can take time
		},
	}
}

// Embed returns the feature vector for the face in imageURL.
func (c *Client) Embed(ctx context.Context, imageURL string) (*EmbedResult, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("image url required")
	}
	if c.Skip {
		return &EmbedResult{Embedding: mockEmbedding(imageURL, c.Dim), Score: 0.95, FacesDetected: 1}, nil
	}

	body, _ := json.Marshal(map[string]string{"image_url": imageURL})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Embedding     []float32 `json:"embedding"`
		Score         float64   `json:"score"`
		FacesDetected int       `json:"faces_detected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Embedding) == 0 || out.FacesDetected == 0 {
		return nil, ErrNoFace
	}
	if c.Dim > 0 && len(out.Embedding) != c.Dim {
		return nil, fmt.Errorf("face service returned %d values, want %d", len(out.Embedding), c.Dim)
	}
	return &EmbedResult{Embedding: out.Embedding, Score: out.Score, FacesDetected: out.FacesDetected}, nil
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

func mockEmbedding(seed string, dim int) []float32 {
	if dim <= 0 {
		dim = 512
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	v := make([]float32, dim)
	var norm float64
	for i := range v {
		f := rng.NormFloat64()
		v[i] = float32(f)
		norm += f * f
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
