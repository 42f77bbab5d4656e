package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/typecache/internal/bundle"
	"github.com/conduit-lang/typecache/internal/cli/config"
	"github.com/conduit-lang/typecache/internal/cli/ui"
	"github.com/conduit-lang/typecache/internal/errtree"
	"github.com/conduit-lang/typecache/internal/kinds"
	"github.com/conduit-lang/typecache/internal/logging"
	"github.com/conduit-lang/typecache/internal/manifest"
	"github.com/conduit-lang/typecache/internal/registry"
)

// reportLabel labels the root of every error report
const reportLabel = "typecache"

// session is the loaded configuration and logger behind one command run
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	noColor bool
}

// session loads the configuration and logger. Configuration problems are
// reported on cmd's error stream and exit with status 2.
func (o *rootOptions) session(cmd *cobra.Command) (*session, error) {
	noColor := o.noColor || color.NoColor
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), nil, noColor))
		return nil, &exitError{code: 2}
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	return &session{cfg: cfg, log: log, noColor: noColor}, nil
}

// bundle loads every manifest and bundles the configured root module, or
// every module when no root is configured. Problems are recorded on sink.
func (s *session) bundle(sink *errtree.Node) *bundle.Bundle {
	set := manifest.Load(s.cfg.Sources, sink.Child("manifests"))
	s.log.Debug("manifests loaded", zap.Int("modules", set.Len()), zap.Strings("names", set.Names()))

	if s.cfg.Root == "" {
		return bundle.FromAllModules(set)
	}
	b, err := bundle.FromModules(set, s.cfg.Root, s.cfg.Policy())
	if err != nil {
		sink.Child("modules").Add(fmt.Errorf("resolving root module %s: %w", s.cfg.Root, err))
		return nil
	}
	return b
}

// build runs the whole pipeline. The registry is nil when no bundle could
// be produced; the error is the full report of everything that failed.
func (s *session) build(ctx context.Context) (*registry.Registry, error) {
	sink := errtree.New(reportLabel)
	b := s.bundle(sink)
	if b == nil {
		return nil, sink.Err()
	}
	reg := registry.Build(ctx, b, kinds.Catalog(), sink,
		registry.WithLogger(s.log),
		registry.WithWorkers(s.cfg.Workers))
	return reg, sink.Err()
}

// close flushes the logger
func (s *session) close() {
	_ = s.log.Sync()
}

// loadRegistry builds the registry for a read-only command. A registry
// that could not be sealed is still returned after a warning, so its
// descriptors can be inspected.
func (s *session) loadRegistry(cmd *cobra.Command) (*registry.Registry, error) {
	reg, err := s.build(cmd.Context())
	if reg == nil {
		errOut := cmd.ErrOrStderr()
		ui.WriteErrorTree(errOut, err, s.noColor)
		return nil, &exitError{code: 1}
	}
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(
			fmt.Sprintf("The registry was not sealed (%d problems); run 'typecache check' for details.", ui.CountLeaves(err)),
			nil, s.noColor))
	}
	return reg, nil
}
