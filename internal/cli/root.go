package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"staffsuite/internal/attendance"
	"staffsuite/internal/audit"
	"staffsuite/internal/config"
	"staffsuite/internal/duty"
	"staffsuite/internal/movement"
	"staffsuite/internal/records"
	"staffsuite/internal/staff"
	"staffsuite/internal/store"
)

// Streams are the names accepted by export, check and clear.
var Streams = []string{"attendance", "movements", "duty", "staff"}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Timezone      string
	Strict        bool
	EmbeddingDim  int
}

// NewRootCommand creates the root command for staffctl. Flag defaults come
// from the same environment the API reads.
func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "staffctl",
		Short: "staffctl - staff attendance store administration",
		Long:  "Export, check and clear the attendance, movement, duty and staff record streams, and manage dashboard credentials.",

		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.RedisAddr, "redis", cfg.RedisAddr, "redis address")
	cmd.PersistentFlags().StringVar(&opts.RedisPassword, "redis-password", cfg.RedisPassword, "redis password")
	cmd.PersistentFlags().IntVar(&opts.RedisDB, "redis-db", cfg.RedisDB, "redis database number")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "tz", cfg.Location.String(), "timezone for timestamps and dates")
	cmd.PersistentFlags().BoolVar(&opts.Strict, "strict", cfg.DecodePolicy == records.FailMalformed, "fail on malformed records instead of skipping them")
	cmd.PersistentFlags().IntVar(&opts.EmbeddingDim, "dim", cfg.EmbeddingDim, "facial feature vector length")

	cmd.AddCommand(NewHashPasswordCommand())
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))

	return cmd
}

// services is the set of stream services a command works against.
type services struct {
	attendance *attendance.Service
	movements  *movement.Service
	duty       *duty.Service
	staff      *staff.Service
	loc        *time.Location
	close      func()
}

func (o *RootOptions) open(ctx context.Context) (*services, error) {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", o.Timezone, err)
	}
	policy := records.SkipMalformed
	if o.Strict {
		policy = records.FailMalformed
	}

	client := store.NewRedis(store.RedisOptions{Addr: o.RedisAddr, Password: o.RedisPassword, DB: o.RedisDB})
	st := records.NewStore(client).WithAuditor(audit.Logger{})
	if !st.Healthy(ctx) {
		_ = client.Close()
		return nil, fmt.Errorf("redis at %s: %w", o.RedisAddr, records.ErrConnectivity)
	}
	return &services{
		attendance: attendance.NewService(st, loc, policy),
		movements:  movement.NewService(st, loc, policy),
		duty:       duty.NewService(st, loc, policy),
		staff:      staff.NewService(st, staff.Options{Dim: o.EmbeddingDim, Policy: policy}),
		loc:        loc,
		close:      func() { _ = client.Close() },
	}, nil
}

func validStream(name string) error {
	for _, s := range Streams {
		if s == name {
			return nil
		}
	}
	return fmt.Errorf("unknown stream %q: must be one of %v", name, Streams)
}
