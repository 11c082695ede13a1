package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	werrors "github.com/wrale/isoreplay/internal/isoreplay/errors"
	"github.com/wrale/isoreplay/internal/isoreplay/runner"
)

func newRunCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay every test-case file of a directory",
		Long: `Replay every test-case file (.json, .yaml, .yml) of the test-case directory
in name order. The tables are created before the first file and emptied after
the last one. The histories of each file are saved under the file's name.

A file that cannot be loaded or replayed is reported and skipped; the command
exits non-zero when any file failed.`,
		Example: `  # Replay ./testcases against a local Postgres at SERIALIZABLE
  isoreplay run

  # Replay against MariaDB at REPEATABLE READ
  ISOREPLAY_DATABASE_DRIVER=mysql ISOREPLAY_REPLAY_ISOLATION=repeatable-read \
    isoreplay run --testcases ./cases --results ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, o.cfg, o.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.schema.SetGlobalIsolation(ctx, a.isolation); err != nil {
				return fmt.Errorf("error setting isolation level: %w", err)
			}

			r := runner.New(a.engine, a.store, a.schema, o.logger)
			summary, err := r.RunDir(ctx, o.cfg.Replay.TestCasesDir)
			if err != nil {
				var domainErr *werrors.Error
				if errors.As(err, &domainErr) {
					o.logger.Error().Err(err).Str("code", domainErr.Code).Str("op", domainErr.Op).Msg("run failed")
					return fmt.Errorf("%s: %w", domainErr.Code, err)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d files, %d test cases, %d failed, %d unreplayable\n",
				summary.RunID, summary.Files, summary.Cases, summary.Failed, summary.Unreplayable)

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d test-case files failed", summary.Failed, summary.Files)
			}
			return nil
		},
	}

	cmd.Flags().String("testcases", "", "directory of test-case files")
	cmd.Flags().String("results", "", "directory results are written to (file store)")
	_ = o.v.BindPFlag("replay.testCasesDir", cmd.Flags().Lookup("testcases"))
	_ = o.v.BindPFlag("replay.resultsDir", cmd.Flags().Lookup("results"))

	return cmd
}
