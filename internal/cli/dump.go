package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/bigpicture/pkg/io"
)

// dumpCommand creates the dump command.
func (c *CLI) dumpCommand() *cobra.Command {
	var (
		sf     sourceFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "dump [repo]",
		Short: "Save the commit history as a JSON snapshot",
		Long: `Save the commit history as a JSON snapshot.

The snapshot holds every commit with its parents, branches and tags. Render it
later, or on another machine, with 'bigpicture render --from <file>'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := sf.open(args)
			if err != nil {
				return err
			}
			opts, err := pipelineOptions(cmd, repo.config, &sf, nil, nil)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, repo, sf.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			prog := newProgress(loggerFromContext(ctx))
			g, err := runner.Load(ctx, repo.source, opts)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Loaded %d commits", g.CommitCount()))

			if output == "" || output == stdoutPath {
				return pkgio.WriteJSON(g.Snapshot(), os.Stdout)
			}
			if err := pkgio.ExportJSON(g.Snapshot(), output); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Saved %d commits", g.CommitCount())
			printFile(output)
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}
