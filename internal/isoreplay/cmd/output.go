package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wrale/isoreplay/api/types/v1alpha1"
)

// printJSON writes an indented JSON representation of v to w
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter creates a tabwriter configured for CLI output
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printHistories renders one table per test case
func printHistories(w io.Writer, histories [][]v1alpha1.TestResult) error {
	for i, h := range histories {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "# test case %d\n", i)

		tw := newTabWriter(w)
		fmt.Fprintln(tw, "TX\tSTATEMENT\tRESULT")
		for _, r := range h {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.TestRan.TransactionId, r.TestRan.SqlCommand, flatten(r.Result))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// flatten keeps multi-line results on one table row
func flatten(s string) string {
	return strings.ReplaceAll(strings.TrimSuffix(s, "\n"), "\n", `\n`)
}
