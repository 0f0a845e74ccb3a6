package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/newsdash/internal/browser"
	"github.com/mmcdole/newsdash/internal/config"
	"github.com/mmcdole/newsdash/internal/dashboard"
	"github.com/mmcdole/newsdash/internal/domain"
	"github.com/mmcdole/newsdash/internal/log"
	"github.com/mmcdole/newsdash/internal/metrics"
	"github.com/mmcdole/newsdash/internal/newsapi"
	"github.com/mmcdole/newsdash/internal/search"
	"github.com/mmcdole/newsdash/internal/store"
	"github.com/mmcdole/newsdash/internal/tui"
)

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configPath string
	plain      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "newsdash",
		Short:         "Terminal news dashboard",
		Long:          "newsdash shows the latest headlines per category from a news API and keeps them fresh.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file")
	flags.String("category", domain.DefaultCategory, "category to show (shorthand such as \"tech\" is accepted)")
	flags.String("api-url", "", "news API base URL")
	flags.String("metrics-addr", "", "serve client metrics on this address (e.g. :9100)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print headlines instead of starting the dashboard")

	cmd.AddCommand(
		newHeadlinesCmd(opts),
		newCategoriesCmd(opts),
		newMetricsCmd(opts),
		newRefreshCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// env is what every command needs once config and logging are set up
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	client *newsapi.Client
	closer io.Closer
}

func (e *env) Close() error {
	return e.closer.Close()
}

// timeout bounds one-shot API calls. A zero api.timeout means the client default.
func (e *env) timeout() time.Duration {
	if e.cfg.API.Timeout > 0 {
		return e.cfg.API.Timeout
	}
	return 30 * time.Second
}

// setup loads config with cmd's flags applied, then builds the logger and API client
func setup(cmd *cobra.Command, opts *rootOptions) (*env, error) {
	cfg, err := config.Load(opts.configPath, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, closer = log.NullLogger(), io.NopCloser(nil)
	}
	slog.SetDefault(logger)

	return &env{
		cfg:    cfg,
		logger: logger,
		client: newsapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger),
		closer: closer,
	}, nil
}

// initialCategory picks the starting category: an explicit --category wins,
// then the remembered one, then the configured one
func initialCategory(cmd *cobra.Command, cfg *config.Config, prefs *store.PrefsStore) string {
	category := cfg.Dashboard.Category
	if f := cmd.Flags().Lookup("category"); f == nil || !f.Changed {
		if last, ok := prefs.LastCategory(); ok && cfg.Dashboard.RememberCategory {
			category = last
		}
	}
	return search.ResolveCategory(category, domain.DefaultCategories)
}

func runDashboard(cmd *cobra.Command, opts *rootOptions) error {
	e, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	if opts.plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		category := search.ResolveCategory(e.cfg.Dashboard.Category, domain.DefaultCategories)
		return printHeadlines(cmd.Context(), cmd.OutOrStdout(), e, category)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := e.logger
	logger.Info("starting newsdash", "version", Version, "api", e.client.BaseURL())

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	if addr := e.cfg.Metrics.Addr; addr != "" {
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := metrics.Serve(ctx, addr, reg, logger); err != nil {
				logger.Error("metrics server failed", "addr", addr, "error", err)
			}
		}()
		defer func() {
			stop()
			<-served
		}()
	}

	prefs, err := store.Open(e.cfg.Storage.Dir)
	if err != nil {
		logger.Warn("preferences unavailable, continuing without them", "error", err)
		prefs, _ = store.Open("")
	}
	defer prefs.Close()

	observer := dashboard.NewChannelObserver(16)
	coord := dashboard.New(e.client,
		dashboard.WithLogger(logger),
		dashboard.WithRecorder(recorder),
		dashboard.WithObserver(observer),
		dashboard.WithCategory(initialCategory(cmd, e.cfg, prefs)),
		dashboard.WithPageSize(e.cfg.Dashboard.PageSize),
		dashboard.WithRefreshInterval(e.cfg.Dashboard.RefreshInterval),
	)
	if err := coord.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dashboard: %w", err)
	}
	defer coord.Stop()

	launcher := browser.NewLauncher(e.cfg.Browser.Command, e.cfg.Browser.Args, logger)
	model := tui.NewModel(coord, observer.C(), e.client, launcher)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	if e.cfg.Dashboard.RememberCategory {
		if err := prefs.SaveLastCategory(coord.Snapshot().SelectedCategory); err != nil {
			logger.Warn("failed to remember category", "error", err)
		}
	}

	logger.Info("shutting down")
	return nil
}
