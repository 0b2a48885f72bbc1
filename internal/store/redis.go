package store

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions selects the Redis instance holding every record stream.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis connects to redis with short timeouts. Failures surface on the
// first command rather than here.
func NewRedis(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}
