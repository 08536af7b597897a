package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ludock/ludock/pkg/diff"
	"github.com/ludock/ludock/pkg/snapshot"
)

// newDiffCmd creates the diff command: compare two world artifacts
// directly, without a project or a baseline store.
func newDiffCmd() *cobra.Command {
	var (
		output     string
		exitStatus bool
	)

	cmd := &cobra.Command{
		Use:   "diff <baseline.json> <current.json>",
		Short: "Compare two world artifacts",
		Long: `Diff compares two world snapshot artifacts by identity and reports
added, removed, and modified instances. Continuous values are compared
with tolerance, so re-serialization noise never shows up as a change.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			was, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			now, err := snapshot.ReadFile(args[1])
			if err != nil {
				return err
			}

			report, err := diff.Compare(was, now)
			if err != nil {
				return err
			}

			if output != "" {
				if err := report.WriteFile(output); err != nil {
					return err
				}
				printFile(output)
			} else {
				if err := report.Write(os.Stdout); err != nil {
					return err
				}
			}

			if report.Status == diff.StatusChanged {
				printWarning("World changed: %d added, %d removed, %d modified",
					len(report.Added), len(report.Removed), len(report.Modified))
				if exitStatus {
					return fmt.Errorf("worlds differ")
				}
			} else {
				printSuccess("Worlds are equivalent")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&exitStatus, "exit-status", false, "exit non-zero when the worlds differ")

	return cmd
}
