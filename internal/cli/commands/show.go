package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/typecache/internal/cli/ui"
	"github.com/conduit-lang/typecache/internal/kinds"
)

func newShowCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <type>",
		Short: "Show the descriptor of one type",
		Long: `Show the category, lifecycle state and derived data of the descriptor
for a type, given by its package-qualified ID.`,
		Example: `  typecache show shop.Order
  typecache show shop.OrderRepository --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format %q (expected table or json)", format)
			}
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			reg, err := s.loadRegistry(cmd)
			if err != nil {
				return err
			}

			id := args[0]
			d, ok := reg.Lookup(id)
			if !ok {
				var ids []string
				for d := range reg.Descriptors() {
					ids = append(ids, d.Type().ID())
				}
				fmt.Fprint(cmd.ErrOrStderr(), ui.TypeNotFoundError(id, ui.SuggestTypes(id, ids), s.noColor))
				return &exitError{code: 1}
			}

			view := kinds.View(d)
			if format == "json" {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			ui.Header(out, view.ID, s.noColor)
			kv := ui.NewKeyValueTable(out, s.noColor)
			kv.AddRow("category", view.Category)
			kv.AddRow("state", view.State)
			if view.Module != "" {
				kv.AddRow("module", view.Module)
			}
			t := d.Type()
			kv.AddRow("kind", t.Kind.String())
			if len(t.Interfaces) > 0 {
				refs := make([]string, len(t.Interfaces))
				for i, r := range t.Interfaces {
					refs[i] = r.String()
				}
				kv.AddRow("implements", strings.Join(refs, ", "))
			}
			if base := t.Base(); base != nil {
				kv.AddRow("extends", base.String())
			}
			for _, detail := range view.Details {
				kv.AddRow(detail.Name, detail.Value)
			}
			kv.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}
