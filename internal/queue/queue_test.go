package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestFaceClockMessage(t *testing.T) {
	msg, err := NewFaceClock(FaceClock{ImageURL: "https://img/1.jpg", Direction: "Clock_In"})
	require.NoError(t, err)
	job, err := msg.FaceClockJob()
	require.NoError(t, err)
	assert.Equal(t, "https://img/1.jpg", job.ImageURL)

	_, err = NewFaceClock(FaceClock{})
	assert.Error(t, err)
	_, err = Message{Type: "other"}.FaceClockJob()
	assert.Error(t, err)
}

func TestInMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := NewInMemory(4)
	ch, err := q.Consume(ctx)
	require.NoError(t, err)

	msg, _ := NewFaceClock(FaceClock{ImageURL: "a", Direction: "Clock_Out"})
	require.NoError(t, q.Publish(ctx, msg))
	assert.Equal(t, TypeFaceClock, receive(t, ch).Type)
}

func TestRedisQueueFIFO(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := NewRedisQueue(client, "")
	q.timeout = 100 * time.Millisecond

	for _, url := range []string{"first", "second"} {
		msg, err := NewFaceClock(FaceClock{ImageURL: url, Direction: "Clock_In"})
		require.NoError(t, err)
		require.NoError(t, q.Publish(ctx, msg))
	}
	require.NoError(t, client.LPush(ctx, DefaultKey, "not json").Err())

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	a, _ := receive(t, ch).FaceClockJob()
	b, _ := receive(t, ch).FaceClockJob()
	assert.Equal(t, "first", a.ImageURL)
	assert.Equal(t, "second", b.ImageURL)
}
