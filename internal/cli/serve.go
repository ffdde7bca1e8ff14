package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bigpicture/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		sf      sourceFlags
		ff      filterFlags
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve [repo]",
		Short: "Serve the big picture over HTTP",
		Long: `Serve the big picture over HTTP.

Routes:
  GET /healthz         liveness probe
  GET /graph.{format}  rendered history (dot, svg, png, jpg, pdf)
  GET /stats           JSON summary

Query parameters override the configured filter: branches, tags, roots,
merges, bifurcations, ids, include, digits and scope. The history is reloaded
whenever the repository's refs change.

Example:
  bigpicture serve --addr :8080 &
  curl 'localhost:8080/graph.svg?merges&digits=auto&ids'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := sf.open(args)
			if err != nil {
				return err
			}
			opts, err := pipelineOptions(cmd, repo.config, &sf, &ff, nil)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = repo.config.Serve.Addr
			}
			if !cmd.Flags().Changed("timeout") {
				if timeout, err = repo.config.ServeTimeout(); err != nil {
					return err
				}
			}

			runner, err := c.newRunner(ctx, repo, sf.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			srv := server.New(server.Config{
				Runner:   runner,
				Source:   repo.source,
				Defaults: opts,
				Timeout:  timeout,
				Logger:   c.Logger,
			})
			printKeyValue("Source", repo.source.String())
			printKeyValue("Listening", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	sf.register(cmd)
	ff.register(cmd.Flags())
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultTimeout, "per-request timeout")

	return cmd
}
