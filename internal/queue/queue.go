package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis list holding pending face clock jobs.
const DefaultKey = "staffsuite:face_clock"

// TypeFaceClock marks a FaceClock job.
const TypeFaceClock = "face_clock"

// Message represents work to be processed.
type Message struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

// FaceClock asks the worker to identify the face in ImageURL and clock the
// matching staff member.
type FaceClock struct {
	ImageURL  string `json:"image_url"`
	Direction string `json:"direction"`
	Zone      string `json:"zone,omitempty"`
	Actor     string `json:"actor,omitempty"`
}

// NewFaceClock wraps a face clock job in a Message.
func NewFaceClock(job FaceClock) (Message, error) {
	if job.ImageURL == "" {
		return Message{}, errors.New("face clock: image_url required")
	}
	body, err := json.Marshal(job)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: TypeFaceClock, Body: body}, nil
}

// FaceClockJob unpacks a face clock message body.
func (m Message) FaceClockJob() (FaceClock, error) {
	if m.Type != TypeFaceClock {
		return FaceClock{}, fmt.Errorf("unexpected message type %q", m.Type)
	}
	var job FaceClock
	if err := json.Unmarshal(m.Body, &job); err != nil {
		return FaceClock{}, fmt.Errorf("decode face clock: %w", err)
	}
	return job, nil
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues a message.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue is a Redis list-backed queue.
type RedisQueue struct {
	client  redis.Cmdable
	key     string
	timeout time.Duration
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client redis.Cmdable, key string) *RedisQueue {
	if key == "" {
		key = DefaultKey
	}
	return &RedisQueue{client: client, key: key, timeout: 5 * time.Second}
}

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

// Consume streams messages using BRPOP. Undecodable entries are dropped.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, q.timeout, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, redis.Nil) {
					log.Printf("queue %s: %v", q.key, err)
					time.Sleep(time.Second)
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			var msg Message
			if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
				log.Printf("queue %s: dropping malformed message: %v", q.key, err)
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
