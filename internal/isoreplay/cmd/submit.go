package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wrale/isoreplay/internal/isoreplay/client"
	"github.com/wrale/isoreplay/internal/isoreplay/loader"
)

func (o *options) client() (*client.Client, error) {
	return client.NewClient(o.cfg.Client.Server, client.WithTimeout(o.cfg.Client.Timeout))
}

func newSubmitCmd(o *options) *cobra.Command {
	var (
		save   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "submit FILE...",
		Short: "Replay test-case files on a running server",
		Long: `Send test-case files to a server started with 'isoreplay serve' and print
the histories it answers with. Files are checked locally before they are sent.`,
		Example: `  # Replay one file and print its histories as a table
  isoreplay submit cases/lost_update.json

  # Replay and keep the result on the server under the file's name
  isoreplay submit --save --server http://replay:8080 cases/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}

			for _, path := range args {
				format, ok := loader.FormatFor(path)
				if !ok {
					return fmt.Errorf("%s: unsupported file extension", path)
				}
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				file, err := loader.Decode(f, format)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if _, err := loader.Build(file); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				name := ""
				if save {
					name = filepath.Base(path)
				}

				resp, err := c.Replay(cmd.Context(), file, name)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				o.logger.Info().Str("file", path).Str("run", resp.RunID).Msg("replayed")
				for _, msg := range resp.Errors {
					o.logger.Warn().Str("file", path).Str("run", resp.RunID).Msg(msg)
				}

				if strings.EqualFold(output, "json") {
					if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "== %s (run %s)\n", path, resp.RunID)
				if err := printHistories(cmd.OutOrStdout(), resp.Histories); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the histories on the server under the file's name")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")

	return cmd
}

func newResultsCmd(o *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "results [NAME]",
		Short: "List stored results, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				names, err := c.ListResults(cmd.Context())
				if err != nil {
					return err
				}
				if strings.EqualFold(output, "json") {
					return printJSON(cmd.OutOrStdout(), names)
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}

			histories, err := c.GetResult(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if strings.EqualFold(output, "json") {
				return printJSON(cmd.OutOrStdout(), histories)
			}
			return printHistories(cmd.OutOrStdout(), histories)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")

	return cmd
}
