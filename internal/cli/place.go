package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chazu/brushline/internal/app"
	"github.com/chazu/brushline/pkg/job"
)

type placeOpts struct {
	format string // "json" | "yaml"
	output string // output file path (stdout if empty)
}

func newPlaceCmd() *cobra.Command {
	opts := placeOpts{format: "json"}

	cmd := &cobra.Command{
		Use:   "place <script>",
		Short: "Evaluate a script and print the resulting placements",
		Long: `Evaluate a placement script, run every placement it defines and print
the transforms.

Examples:
  brushline place fence.lisp
  brushline place fence.lisp --format yaml -o fence.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "json" && opts.format != "yaml" {
				return fmt.Errorf("unknown format %q, expected json or yaml", opts.format)
			}
			ctx := cmd.Context()
			settings, err := settingsFrom(configFromContext(ctx))
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			p := newProgress(loggerFromContext(ctx))
			res := app.New(settings, loggerFromContext(ctx)).Evaluate(string(src))
			if !res.OK() {
				errs := make([]error, len(res.Errors))
				for i, f := range res.Errors {
					errs[i] = errors.New(f.String())
				}
				return fmt.Errorf("%s: %w", args[0], errors.Join(errs...))
			}
			p.done(fmt.Sprintf("Placed %s", args[0]))

			w := cmd.OutOrStdout()
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeResults(w, opts.format, res.Runs)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json or yaml")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func writeResults(w io.Writer, format string, results []job.Result) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
