package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/typecache/internal/cli/ui"
	"github.com/conduit-lang/typecache/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sealed registry over a read-only HTTP API",
		Long: `Build the registry and, once it is sealed, serve it over HTTP:

  GET /healthz             build ID and seal status
  GET /categories          every category with its descriptor count
  GET /categories/{name}   one category and its descriptors
  GET /types[?category=]   descriptors, optionally of one category
  GET /types/{id}          one descriptor
  GET /bundle              the bundle the registry was built from

Nothing is served when the build fails.`,
		Example: `  typecache serve
  typecache serve --addr :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if addr == "" {
				addr = s.cfg.Server.Addr
			}

			reg, buildErr := s.build(cmd.Context())
			if buildErr != nil {
				errOut := cmd.ErrOrStderr()
				ui.WriteErrorTree(errOut, buildErr, s.noColor)
				fmt.Fprintln(errOut)
				fmt.Fprint(errOut, ui.BuildFailedError(ui.CountLeaves(buildErr), s.noColor))
				return &exitError{code: 1}
			}
			defer reg.Close()

			cfg := server.DefaultConfig(addr, server.Handler(reg, s.log))
			cfg.Logger = s.log
			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			if err := srv.Listen(); err != nil {
				return err
			}

			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Serving %d types on http://%s (build %s)",
				reg.Count(), srv.Addr(), reg.BuildID()), s.noColor)
			s.log.Info("server started", zap.String("addr", srv.Addr()), zap.String("build_id", reg.BuildID()))
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from config)")
	return cmd
}
