package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bigpicture/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the history and image cache",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file selecting the cache backend")

	cmd.AddCommand(c.cacheClearCommand(&configPath))
	cmd.AddCommand(c.cachePathCommand(&configPath))

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached histories and images",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath, ".")
			if err != nil {
				return err
			}

			store, err := c.newCache(ctx, cfg, false)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			count, err := cache.Clear(ctx, store)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			if fc, ok := store.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, ".")
			if err != nil {
				return err
			}
			switch cfg.Cache.Backend {
			case "", cache.BackendFile:
				dir, err := cacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Println(dir)
			case cache.BackendNone:
				printInfo("Caching is disabled")
			default:
				printKeyValue(cfg.Cache.Backend, cfg.Cache.URL)
			}
			return nil
		},
	}
}
