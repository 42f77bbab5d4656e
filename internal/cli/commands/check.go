package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/typecache/internal/cli/ui"
	"github.com/conduit-lang/typecache/internal/errtree"
	"github.com/conduit-lang/typecache/internal/watch"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var (
		format  string
		watchFS bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Build the registry and report every problem",
		Long: `Load all manifests, build the type registry and report the result.

The build runs in phases: classification, construction, basic
initialization, navigation and validation. Every problem from every phase
is collected; the registry is sealed only when there are none.

Exits with status 1 when the registry could not be sealed. With --watch,
the registry is rebuilt whenever a manifest changes until interrupted.`,
		Example: `  # Human-readable error tree
  typecache check

  # Machine-readable report (useful for tooling)
  typecache check --format json

  # Rebuild on every manifest change
  typecache check --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if !cmd.Flags().Changed("format") {
				format = s.cfg.Output.Format
			}
			if format != "tree" && format != "json" {
				return fmt.Errorf("invalid format %q (expected tree or json)", format)
			}

			failed := s.check(cmd, format)
			if !watchFS {
				if failed {
					return &exitError{code: 1}
				}
				return nil
			}

			roots := make([]string, len(s.cfg.Sources))
			for i, src := range s.cfg.Sources {
				roots[i] = src.Path
			}
			w, err := watch.New(roots, watch.DefaultDelay, func(files []string) {
				fmt.Fprint(cmd.ErrOrStderr(), ui.Info("Changed: "+strings.Join(files, ", "), s.noColor))
				s.check(cmd, format)
			}, s.log)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				_ = w.Stop()
				return err
			}
			fmt.Fprint(cmd.ErrOrStderr(), ui.Info("Watching manifests; press Ctrl+C to stop.", s.noColor))
			<-cmd.Context().Done()
			return w.Stop()
		},
	}

	cmd.Flags().StringVar(&format, "format", "tree", "Report format: tree or json")
	cmd.Flags().BoolVarP(&watchFS, "watch", "w", false, "Rebuild whenever a manifest changes")
	return cmd
}

// check builds the registry once and reports the outcome. It returns
// whether the build failed.
func (s *session) check(cmd *cobra.Command, format string) bool {
	reg, buildErr := s.build(cmd.Context())
	out := cmd.OutOrStdout()

	switch {
	case format == "json":
		report, err := errtree.FormatJSON(buildErr)
		if err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.Warning("rendering report: "+err.Error(), nil, s.noColor))
			return true
		}
		fmt.Fprintln(out, report)
	case buildErr == nil:
		ui.WriteSuccess(out, fmt.Sprintf("Registry sealed: %d types in %d categories (build %s)",
			reg.Count(), len(reg.Categories()), reg.BuildID()), s.noColor)
	default:
		errOut := cmd.ErrOrStderr()
		ui.WriteErrorTree(errOut, buildErr, s.noColor)
		fmt.Fprintln(errOut)
		fmt.Fprint(errOut, ui.BuildFailedError(ui.CountLeaves(buildErr), s.noColor))
	}
	return buildErr != nil
}
