package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmcdole/newsdash/internal/config"
	"github.com/mmcdole/newsdash/internal/dashboard"
	"github.com/mmcdole/newsdash/internal/domain"
	"github.com/mmcdole/newsdash/internal/search"
)

func newHeadlinesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "headlines [category]",
		Short: "Print the current headlines and exit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			category := e.cfg.Dashboard.Category
			if len(args) == 1 {
				category = args[0]
			}
			category = search.ResolveCategory(category, domain.DefaultCategories)
			return printHeadlines(cmd.Context(), cmd.OutOrStdout(), e, category)
		},
	}
}

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories the news API serves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), e.timeout())
			defer cancel()

			categories, err := e.client.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("loading categories: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, c := range categories {
				fmt.Fprintln(out, c)
			}
			return nil
		},
	}
}

func newMetricsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show the news API's cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), e.timeout())
			defer cancel()

			m, err := e.client.GetMetrics(ctx)
			if err != nil {
				return fmt.Errorf("loading metrics: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Hits: %d\n", m.Hits)
			fmt.Fprintf(out, "Misses: %d\n", m.Misses)
			fmt.Fprintf(out, "Total requests: %d\n", m.TotalRequests)
			fmt.Fprintf(out, "Hit rate: %.1f%%\n", m.HitRatePercent)
			return nil
		},
	}
}

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "refresh [category]",
		Short: "Clear the news API's cache for a category",
		Long: `Ask the news API to drop its cached articles for one category.

Uses the configured category unless one is given. --all clears every category.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("--all cannot be combined with a category")
			}

			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			target := ""
			if !all {
				target = e.cfg.Dashboard.Category
				if len(args) == 1 {
					target = args[0]
				}
				target = search.ResolveCategory(target, domain.DefaultCategories)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), e.timeout())
			defer cancel()

			ack, err := e.client.InvalidateCache(ctx, target)
			if err != nil {
				e.logger.Error("cache clear failed", "category", target, "error", err)
				return errors.New(domain.CacheClearFailedMessage)
			}

			out := cmd.OutOrStdout()
			switch {
			case ack.Message != "":
				fmt.Fprintln(out, ack.Message)
			case target == "":
				fmt.Fprintln(out, "Cleared cache for all categories.")
			default:
				fmt.Fprintf(out, "Cleared cache for %s.\n", target)
			}
			if ack.KeysDeleted > 0 {
				fmt.Fprintf(out, "Keys deleted: %d\n", ack.KeysDeleted)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "clear every category")
	return cmd
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			if write {
				path, err := config.Save(cfg, opts.configPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", path)
				return nil
			}

			path := opts.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			fmt.Fprintf(out, "config file:       %s\n", path)
			fmt.Fprintf(out, "api url:           %s\n", cfg.API.BaseURL)
			fmt.Fprintf(out, "api timeout:       %s\n", cfg.API.Timeout)
			fmt.Fprintf(out, "category:          %s\n", cfg.Dashboard.Category)
			fmt.Fprintf(out, "page size:         %d\n", cfg.Dashboard.PageSize)
			fmt.Fprintf(out, "refresh interval:  %s\n", cfg.Dashboard.RefreshInterval)
			fmt.Fprintf(out, "remember category: %t\n", cfg.Dashboard.RememberCategory)
			fmt.Fprintf(out, "storage dir:       %s\n", cfg.Storage.Dir)
			fmt.Fprintf(out, "log file:          %s\n", cfg.Logging.File)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write the effective configuration to the config file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newsdash %s\n", Version)
		},
	}
}

// printHeadlines runs the coordinator until the first fetch settles and
// prints the result
func printHeadlines(ctx context.Context, out io.Writer, e *env, category string) error {
	state, err := fetchOnce(ctx, e, category)
	if err != nil {
		return err
	}
	if state.Error != "" {
		return errors.New(state.Error)
	}
	writeHeadlines(out, state, time.Now())
	return nil
}

func fetchOnce(ctx context.Context, e *env, category string) (dashboard.State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	// Leave room for the request timeout to fire first
	ctx, cancel := context.WithTimeout(ctx, e.timeout()+5*time.Second)
	defer cancel()

	observer := dashboard.NewChannelObserver(16)
	coord := dashboard.New(e.client,
		dashboard.WithLogger(e.logger),
		dashboard.WithObserver(observer),
		dashboard.WithCategory(category),
		dashboard.WithPageSize(e.cfg.Dashboard.PageSize),
		dashboard.WithRefreshInterval(0),
	)
	if err := coord.Start(ctx); err != nil {
		return dashboard.State{}, err
	}
	defer coord.Stop()

	for {
		select {
		case state := <-observer.C():
			if settled(state) {
				return state, nil
			}
		case <-ctx.Done():
			return dashboard.State{}, fmt.Errorf("waiting for headlines: %w", ctx.Err())
		}
	}
}

// settled reports whether the first fetch has finished either way
func settled(s dashboard.State) bool {
	return !s.Loading && (s.Error != "" || !s.UpdatedAt.IsZero())
}

func writeHeadlines(out io.Writer, s dashboard.State, now time.Time) {
	source := "live"
	if s.FromCache {
		source = "cached"
	}
	fmt.Fprintf(out, "%s (%d of %d, %s)\n", s.SelectedCategory, len(s.Articles), s.TotalResults, source)

	if len(s.Articles) == 0 {
		fmt.Fprintln(out, "No articles found.")
		return
	}

	for i, a := range s.Articles {
		fmt.Fprintf(out, "\n%2d. %s\n", i+1, a.Title)
		meta := a.Byline()
		if !a.PublishedAt.IsZero() {
			meta += " · " + domain.TimeAgo(now, a.PublishedAt)
		}
		fmt.Fprintf(out, "    %s\n", meta)
		fmt.Fprintf(out, "    %s\n", a.URL)
	}
}
