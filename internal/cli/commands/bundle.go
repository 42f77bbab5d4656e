package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/typecache/internal/cli/ui"
	"github.com/conduit-lang/typecache/internal/errtree"
)

func newBundleCommand(opts *rootOptions) *cobra.Command {
	var types bool

	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Show the type bundle the registry is built from",
		Long: `Load all manifests and draw the bundle tree: the configured root module
and the modules its requirements pull in, or every module when no root is
configured. Nothing is classified.`,
		Example: `  typecache bundle
  typecache bundle --types`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			sink := errtree.New(reportLabel)
			b := s.bundle(sink)
			if err := sink.Err(); err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.Warning("Some manifests could not be loaded:", nil, s.noColor))
				ui.WriteErrorTree(cmd.ErrOrStderr(), err, s.noColor)
			}
			if b == nil {
				return &exitError{code: 1}
			}

			fmt.Fprint(cmd.OutOrStdout(), b.Render(types))
			fmt.Fprintf(cmd.OutOrStdout(), "%d distinct types\n", b.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&types, "types", false, "List the types of every node")
	return cmd
}
