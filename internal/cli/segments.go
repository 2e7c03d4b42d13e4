package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chazu/brushline/pkg/job"
	"github.com/chazu/brushline/pkg/path"
)

func newSegmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "segments <script>",
		Short: "List the segments and span midpoints of each path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := loadJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeSegments(cmd.OutOrStdout(), j)
		},
	}
}

func writeSegments(w io.Writer, j *job.Job) error {
	for _, name := range j.PathNames() {
		p, _ := j.Path(name)
		if p.Stale() {
			p.Resample()
		}
		shape := "open"
		if p.Closed() {
			shape = "closed"
		}
		if _, err := fmt.Fprintf(w, "%s: %d points, %s, length %.4g\n", name, p.Len(), shape, p.Polyline().Total); err != nil {
			return err
		}
		for i, seg := range path.GetSegments(p) {
			first, last := seg.Indices[0], seg.Indices[len(seg.Indices)-1]
			if _, err := fmt.Fprintf(w, "  segment %d: %s points %d..%d (%d spans)\n", i, seg.Type, first, last, seg.Spans()); err != nil {
				return err
			}
		}
		for i, m := range p.Midpoints() {
			if _, err := fmt.Fprintf(w, "  midpoint %d: %s\n", i, m); err != nil {
				return err
			}
		}
	}
	return nil
}
