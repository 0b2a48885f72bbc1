package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"staffsuite/internal/records"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "STAFF_ROLES", "STAFF_ZONES", "APP_TIMEZONE", "DECODE_POLICY", "FACE_MATCH_THRESHOLD", "CAPTURE_TTL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, DefaultRoles, cfg.StaffRoles)
	assert.Equal(t, DefaultZones, cfg.StaffZones)
	assert.Equal(t, "Africa/Lagos", cfg.Location.String())
	assert.Equal(t, records.SkipMalformed, cfg.DecodePolicy)
	assert.Equal(t, 0.5, cfg.FaceMatchThreshold)
	assert.Equal(t, 15*time.Minute, cfg.CaptureTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STAFF_ZONES", " Kano Zone , ,Abuja Zone 1")
	t.Setenv("APP_TIMEZONE", "Not/AZone")
	t.Setenv("DECODE_POLICY", "strict")
	t.Setenv("FACE_MATCH_THRESHOLD", "0.72")
	t.Setenv("REDIS_DB", "nope")
	t.Setenv("FACE_SKIP", "false")

	cfg := Load()
	assert.Equal(t, []string{"Kano Zone", "Abuja Zone 1"}, cfg.StaffZones)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, records.FailMalformed, cfg.DecodePolicy)
	assert.Equal(t, 0.72, cfg.FaceMatchThreshold)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.FaceSkip)
}
