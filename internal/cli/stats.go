package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bigpicture/pkg/pipeline"
	"github.com/matzehuels/bigpicture/pkg/render/dot"
)

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var (
		sf     sourceFlags
		ff     filterFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stats [repo]",
		Short: "Summarize the shape of a repository's history",
		Long: `Summarize the shape of a repository's history.

Prints how many commits are roots, merges and bifurcations, how many carry
branches or tags, how many the filter keeps, and the shortest id length that
keeps the kept commits unambiguous.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := sf.open(args)
			if err != nil {
				return err
			}
			opts, err := pipelineOptions(cmd, repo.config, &sf, &ff, nil)
			if err != nil {
				return err
			}
			opts.Format = dot.FormatDOT

			runner, err := c.newRunner(cmd.Context(), repo, sf.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			prog := newProgress(loggerFromContext(cmd.Context()))
			res, err := runner.Execute(cmd.Context(), repo.source, opts)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Analyzed %d commits", res.Stats.Commits))

			summary := res.Summary()
			if asJSON {
				return writeSummaryJSON(summary)
			}
			printSummary(repo.source.String(), summary)
			return nil
		},
	}

	sf.register(cmd)
	ff.register(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

func printSummary(source string, s pipeline.Summary) {
	fmt.Println(StyleTitle.Render(source))
	fmt.Println(summaryTable(s).Render())
	if s.SnapshotCached {
		printDetail("history loaded from cache")
	}
}

func writeSummaryJSON(s pipeline.Summary) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
