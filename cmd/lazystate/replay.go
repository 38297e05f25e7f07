package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lazystate/internal/errors"
	"github.com/vango-dev/lazystate/internal/scenario"
)

func replayCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "replay <file>...",
		Short: "Replay scenario files",
		Long: `Replay one or more scenario files and print a report per file.

Each step that sets or updates the state reports whether the
component would render again and which observed path changed.
The command fails when any expectation does not hold.

Examples:
  lazystate replay scenarios/conditional.yaml
  lazystate replay --json scenarios/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g.jsonErrors = asJSON
			return runReplay(cmd.Context(), cmd.OutOrStdout(), args, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print reports as a JSON array")

	return cmd
}

func runReplay(ctx context.Context, w io.Writer, files []string, asJSON bool) error {
	var (
		reports []*scenario.Report
		failed  int
	)

	for _, file := range files {
		sc, err := scenario.Load(file)
		if err != nil {
			return err
		}
		if len(sc.Steps) == 0 && !asJSON {
			warn("%s has no steps", file)
		}

		report, err := scenario.Run(ctx, sc)
		if err != nil {
			return errors.Newf(errors.CategoryReplay, "replay of %s interrupted", file).Wrap(err)
		}
		if !report.Passed() {
			failed++
		}

		if asJSON {
			reports = append(reports, report)
			continue
		}
		if err := report.WriteText(w); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	}

	if failed > 0 {
		return errors.New("E140").
			WithDetail(fmt.Sprintf("%d of %d scenarios failed.", failed, len(files))).
			WithSuggestion("Compare each failed step's outcome with the paths it observed")
	}
	if !asJSON {
		success("%d scenarios passed", len(files))
	}
	return nil
}
