package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spectra/pkg/metadata"
)

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify REPORT.md...",
		Short: "Check that generated markdown reports have not been edited",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0

			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}

				meta, err := metadata.Verify(string(content))
				if err != nil {
					failed++
					fmt.Fprintf(out, "❌ %s: %v\n", path, err)
					continue
				}

				fmt.Fprintf(out, "✅ %s: run %s, %d records from %s, generated %s\n",
					path, meta.RunID, meta.Records, strings.Join(meta.Sources, ", "),
					meta.Generated.Format(time.RFC3339))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d reports failed verification", failed, len(args))
			}

			return nil
		},
	}
}
