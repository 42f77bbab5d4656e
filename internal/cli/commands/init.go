package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/typecache/internal/cli/config"
	"github.com/conduit-lang/typecache/internal/cli/ui"
	"github.com/conduit-lang/typecache/internal/manifest"
)

// initAnswers are the values collected by the init prompts
type initAnswers struct {
	Root      string `survey:"root"`
	Sources   string `survey:"sources"`
	Inclusion string `survey:"inclusion"`
	Output    string `survey:"output"`
}

// asker runs the init prompts; tests replace it
var asker = func(qs []*survey.Question, answers *initAnswers) error {
	return survey.Ask(qs, answers)
}

func initQuestions(defaults initAnswers) []*survey.Question {
	return []*survey.Question{
		{
			Name: "root",
			Prompt: &survey.Input{
				Message: "Root module (empty builds every module):",
				Default: defaults.Root,
			},
		},
		{
			Name: "sources",
			Prompt: &survey.Input{
				Message: "Manifest directories (comma-separated):",
				Default: defaults.Sources,
			},
			Validate: survey.Required,
		},
		{
			Name: "inclusion",
			Prompt: &survey.Select{
				Message: "Which required modules contribute types?",
				Options: []string{"referenced", "opted-in"},
				Default: defaults.Inclusion,
			},
		},
		{
			Name: "output",
			Prompt: &survey.Select{
				Message: "Default report format:",
				Options: []string{"tree", "json"},
				Default: defaults.Output,
			},
		},
	}
}

func newInitCommand(opts *rootOptions) *cobra.Command {
	var (
		yes   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a typecache.yml",
		Long: `Create a typecache.yml in the given directory (default: the working
directory). You are prompted for the root module, manifest directories and
policies unless --yes is given.`,
		Example: `  typecache init
  typecache init --yes
  typecache init services/shop --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.FileName+".yml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			answers := initAnswers{Sources: ".", Inclusion: "referenced", Output: "tree"}
			if !yes {
				if err := asker(initQuestions(answers), &answers); err != nil {
					return err
				}
			}

			cfg := config.Default()
			cfg.Root = strings.TrimSpace(answers.Root)
			cfg.Inclusion = answers.Inclusion
			cfg.Output.Format = answers.Output
			cfg.Sources = parseSources(answers.Sources)

			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
			if err := cfg.Save(path); err != nil {
				return err
			}

			noColor := opts.noColor
			out := cmd.OutOrStdout()
			ui.WriteSuccess(out, "Created "+path, noColor)
			fmt.Fprint(out, ui.Info("Next: add *.module.yaml manifests and run 'typecache check'.", noColor))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Accept defaults without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing typecache.yml")
	return cmd
}

// parseSources turns "a, b" into sources named after their directories
func parseSources(list string) []manifest.Source {
	var out []manifest.Source
	seen := make(map[string]int)
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name := filepath.Base(filepath.Clean(p))
		if name == "." || name == string(filepath.Separator) {
			name = "local"
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}
		out = append(out, manifest.Source{Name: name, Path: p})
	}
	return out
}
