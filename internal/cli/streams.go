package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"staffsuite/internal/attendance"
	"staffsuite/internal/duty"
	"staffsuite/internal/movement"
	"staffsuite/internal/records"
	"staffsuite/internal/report"
	"staffsuite/internal/staff"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var features bool
	cmd := &cobra.Command{
		Use:          "export <stream>",
		Short:        "Write a stream as CSV to stdout",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validStream(args[0]); err != nil {
				return err
			}
			svc, err := rootOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			t, skipped, err := svc.table(cmd.Context(), args[0], features)
			if err != nil {
				return err
			}
			if skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d malformed record(s)\n", skipped)
			}
			return t.WriteCSV(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&features, "features", false, "include facial feature vectors (staff only)")
	return cmd
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "check [stream...]",
		Short:        "Count decodable and malformed records per stream",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = Streams
			}
			for _, name := range args {
				if err := validStream(name); err != nil {
					return err
				}
			}
			svc, err := rootOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			for _, name := range args {
				t, skipped, err := svc.table(cmd.Context(), name, false)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records, %d skipped\n", name, len(t.Rows), skipped)
			}
			return nil
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:          "clear <stream>",
		Short:        "Delete every record in a stream",
		Long:         "Delete every record in a stream. This cannot be undone; export first.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validStream(args[0]); err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to clear %s without --yes", args[0])
			}
			svc, err := rootOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			ctx := records.WithActor(cmd.Context(), "staffctl")
			var n int64
			switch args[0] {
			case "attendance":
				n, err = svc.attendance.Clear(ctx)
			case "movements":
				n, err = svc.movements.Clear(ctx)
			case "duty":
				n, err = svc.duty.Clear(ctx)
			case "staff":
				n, err = svc.staff.Clear(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d record(s) from %s\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the irreversible clear")
	return cmd
}

func (s *services) table(ctx context.Context, name string, features bool) (report.Table, int, error) {
	switch name {
	case "attendance":
		res, err := s.attendance.Load(ctx)
		if err != nil {
			return report.Table{}, 0, err
		}
		return attendance.Table(res.Records, s.loc), res.Skipped, nil
	case "movements":
		res, err := s.movements.Load(ctx)
		if err != nil {
			return report.Table{}, 0, err
		}
		return movement.Table(res.Records, s.loc), res.Skipped, nil
	case "duty":
		res, err := s.duty.Load(ctx)
		if err != nil {
			return report.Table{}, 0, err
		}
		return duty.Table(res.Records, s.loc), res.Skipped, nil
	case "staff":
		res, err := s.staff.Load(ctx)
		if err != nil {
			return report.Table{}, 0, err
		}
		return staff.Table(res.Records, features), res.Skipped, nil
	}
	return report.Table{}, 0, validStream(name)
}
