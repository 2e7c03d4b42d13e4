package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/chazu/brushline/pkg/job"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <script>",
		Short: "Validate a script without placing anything",
		Long: `Evaluate a script and report validation findings. Warnings are printed
but only errors make the command fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			res := job.Validate(j)
			if err := writeFindings(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("%s: %d validation errors", args[0], len(res.Errors))
			}
			return nil
		},
	}
}

func writeFindings(w io.Writer, res job.ValidationResult) error {
	for _, f := range slices.Concat(res.Errors, res.Warnings) {
		if _, err := fmt.Fprintln(w, f.Error()); err != nil {
			return err
		}
	}
	if res.OK() && len(res.Warnings) == 0 {
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
	return nil
}
