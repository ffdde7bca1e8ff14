package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bigpicture/pkg/pipeline"
	"github.com/matzehuels/bigpicture/pkg/render/dot"
)

// stdoutPath selects standard output for --output.
const stdoutPath = "-"

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		sf          sourceFlags
		ff          filterFlags
		rf          renderFlags
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "render [repo]",
		Short: "Draw the big picture of a repository",
		Long: `Draw the big picture of a repository.

Only commits selected by the filter flags are kept. Each kept commit is linked
to its nearest kept ancestors, so long stretches of plain history collapse into
a single edge. By default branch tips and tagged commits are kept.

DOT output goes to stdout unless --output is given; images are written to
history.<format>. Rendered images are cached.

Examples:
  bigpicture render | dot -Tsvg > history.svg
  bigpicture render -f svg -o history.svg --merges --roots
  bigpicture render ../project --ids --digits auto -i HEAD
  bigpicture render --from history.json -f png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := sf.open(args)
			if err != nil {
				return err
			}
			opts, err := pipelineOptions(cmd, repo.config, &sf, &ff, &rf)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), repo, opts, rf.output, sf.noCache, interactive)
		},
	}

	sf.register(cmd)
	ff.register(cmd.Flags())
	rf.register(cmd)
	cmd.Flags().BoolVar(&interactive, "interactive", false, "choose the filter predicates interactively")

	return cmd
}

// runRender executes the pipeline and writes the artifact.
func (c *CLI) runRender(ctx context.Context, repo *repository, opts pipeline.Options, output string, noCache, interactive bool) error {
	runner, err := c.newRunner(ctx, repo, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if interactive {
		full, err := runner.Load(ctx, repo.source, opts)
		if err != nil {
			return err
		}
		picked, ok, err := pickFilters(ctx, full, opts)
		if err != nil {
			return err
		}
		if !ok {
			printInfo("Cancelled")
			return nil
		}
		opts = picked
	}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	path := outputPath(output, opts.Format)
	toStdout := path == stdoutPath

	var spinner *Spinner
	if !toStdout {
		spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", repo.source))
		spinner.Start()
	}

	res, err := runner.Execute(ctx, repo.source, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if toStdout {
		_, err := os.Stdout.Write(res.Artifact)
		return err
	}
	if err := os.WriteFile(path, res.Artifact, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess("Rendered %s", strings.ToUpper(opts.Format))
	printStats(res.Stats, res.CacheInfo)
	if res.Stats.FilteredCommits == 0 {
		printWarning("No commit matched the filter; enable more predicates or add --include")
	}
	printFile(path)
	return nil
}

// outputPath picks the destination for format: stdout for DOT, a file
// named after the format otherwise.
func outputPath(output, format string) string {
	if output != "" {
		return output
	}
	if format == dot.FormatDOT {
		return stdoutPath
	}
	return "history." + format
}
