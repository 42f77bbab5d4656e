package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/typecache/internal/cli/ui"
	"github.com/conduit-lang/typecache/internal/kinds"
	"github.com/conduit-lang/typecache/internal/registry"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list [category]",
		Short: "List categories, or the types of one category",
		Long: `Without arguments, list every category with its descriptor count.
With a category name, list the types classified into it.`,
		Example: `  typecache list
  typecache list Repository
  typecache list Entity --format json`,
		Args: cobra.MaximumNArgs(1),
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

			if len(args) == 0 {
				return listCategories(cmd, s, reg, format)
			}
			return listTypes(cmd, s, reg, args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func listCategories(cmd *cobra.Command, s *session, reg *registry.Registry, format string) error {
	cats := kinds.Categories(reg)
	if format == "json" {
		return writeJSON(cmd, cats)
	}

	out := cmd.OutOrStdout()
	ui.Header(out, "Categories", s.noColor)
	table := ui.NewTable(out, []string{"CATEGORY", "TYPES", "PRIORITY", "DESCRIPTION"}, s.noColor)
	for _, c := range cats {
		table.AddRow(c.Name, strconv.Itoa(c.Count), strconv.Itoa(c.Priority), c.Description)
	}
	table.Render()
	return nil
}

func listTypes(cmd *cobra.Command, s *session, reg *registry.Registry, category, format string) error {
	if _, ok := reg.Category(category); !ok {
		var names []string
		for _, c := range reg.Categories() {
			names = append(names, c.Name())
		}
		fmt.Fprint(cmd.ErrOrStderr(), ui.CategoryNotFoundError(category, ui.FindSimilar(category, names, nil), s.noColor))
		return &exitError{code: 1}
	}

	views := []kinds.TypeView{}
	for _, d := range reg.ByCategory(category) {
		views = append(views, kinds.View(d))
	}
	if format == "json" {
		return writeJSON(cmd, views)
	}

	out := cmd.OutOrStdout()
	ui.Header(out, category, s.noColor)
	table := ui.NewTable(out, []string{"TYPE", "MODULE", "STATE"}, s.noColor)
	for _, v := range views {
		table.AddRow(v.ID, v.Module, v.State)
	}
	table.Render()
	if table.Len() == 0 {
		fmt.Fprint(out, ui.Info("No types in this category.", s.noColor))
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
