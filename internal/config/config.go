package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"staffsuite/internal/records"
)

// DefaultRoles are the officer roles offered at registration.
var DefaultRoles = []string{"ICT", "LEGAL", "Investigation", "Unit Head", "Sectional Head", "Admin", "Security", "Forensic", "Others"}

// DefaultZones are the office zones offered at registration.
var DefaultZones = []string{"Lagos Zone 1", "Lagos Zone 2", "Abuja Zone 1", "Port Harcourt Zone", "Kano Zone"}

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env                string
	HTTPPort           string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	DatabaseURL        string
	JWTIssuer          string
	CredentialsFile    string
	Location           *time.Location
	DecodePolicy       records.DecodePolicy
	FaceServiceURL     string
	FaceSkip           bool
	EmbeddingDim       int
	FaceMatchThreshold float64
	CaptureTTL         time.Duration
	QueueBackend       string
	RateLimitPerMin    int
	CORSOrigins        []string
	CloudinaryCloud    string
	CloudinaryKey      string
	CloudinarySecret   string
	CloudinaryFolder   string
	StaffRoles         []string
	StaffZones         []string
}

// Load returns application config populated from environment variables with sensible defaults.
func Load() App {
	return App{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPPort:           getEnv("HTTP_PORT", "8081"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            intEnv("REDIS_DB", 0),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTIssuer:          getEnv("JWT_ISSUER", "staffsuite"),
		CredentialsFile:    getEnv("CREDENTIALS_FILE", "config.yaml"),
		Location:           locationEnv("APP_TIMEZONE", "Africa/Lagos"),
		DecodePolicy:       records.ParsePolicy(getEnv("DECODE_POLICY", "skip")),
		FaceServiceURL:     getEnv("FACE_SERVICE_URL", "http://localhost:8000"),
		FaceSkip:           boolEnv("FACE_SKIP", true),
		EmbeddingDim:       intEnv("EMBEDDING_DIM", 512),
		FaceMatchThreshold: floatEnv("FACE_MATCH_THRESHOLD", 0.5),
		CaptureTTL:         durationEnv("CAPTURE_TTL", 15*time.Minute),
		QueueBackend:       getEnv("QUEUE_BACKEND", "redis"),
		RateLimitPerMin:    intEnv("RATE_LIMIT_PER_MIN", 120),
		CORSOrigins:        listEnv("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		CloudinaryCloud:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryKey:      os.Getenv("CLOUDINARY_API_KEY"),
		CloudinarySecret:   os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:   getEnv("CLOUDINARY_FOLDER", "staffsuite"),
		StaffRoles:         listEnv("STAFF_ROLES", DefaultRoles),
		StaffZones:         listEnv("STAFF_ZONES", DefaultZones),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
		log.Printf("invalid float for %s, using fallback %g", key, fallback)
	}
	return fallback
}

// listEnv splits a comma separated value, dropping blanks.
func listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

func locationEnv(key, fallback string) *time.Location {
	name := getEnv(key, fallback)
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("invalid timezone for %s: %v, using UTC", key, err)
		return time.UTC
	}
	return loc
}
