package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromDefaultsToAnonymous(t *testing.T) {
	s := From(context.Background())
	assert.False(t, s.Authenticated)
	assert.Equal(t, "anonymous", s.Actor())
}

func TestWithRoundTrip(t *testing.T) {
	ctx := With(context.Background(), Session{Username: "jsmith", Name: "John Smith", Authenticated: true})
	s := From(ctx)
	assert.Equal(t, "John Smith", s.Name)
	assert.Equal(t, "jsmith", s.Actor())
}
