package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/storefront-console/storefront/internal/api"
	"github.com/storefront-console/storefront/internal/content"
	"github.com/storefront-console/storefront/internal/logging"
	"github.com/storefront-console/storefront/internal/metrics"
	"github.com/storefront-console/storefront/internal/ui/app"
)

func newTUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive interface (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *options) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := openRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if addr := rt.cfg.Metrics.Addr; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, rt.registry); err != nil {
				rt.logger.Error("Metrics endpoint stopped", "error", err.Error())
			}
		}()
	}

	controller := app.NewController(app.Deps{
		Context:     ctx,
		Client:      rt.client,
		Session:     rt.session,
		Theme:       rt.theme,
		Highlighter: content.ForTheme(rt.theme),
		Observer:    rt.metrics,
		Logger:      rt.logger.WithComponent("ui"),
	})

	rt.logger.Info("Starting interactive session", "api", rt.client.BaseURL())
	program := tea.NewProgram(controller,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}

func newMockServerCmd() *cobra.Command {
	var (
		addr    string
		latency time.Duration
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a local fake of the store API",
		Long: `Run a local fake of the store API for development.

Sign in with mor_2314 / 83r5^_. Send the X-Mock-Status header to force
any status code, e.g. to see how a 503 is reported.

Example:
  storefront mock-server --addr 127.0.0.1:8090 --latency 300ms
  storefront --api-url http://127.0.0.1:8090 products`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := logging.InfoLevel
			if debug {
				level = logging.DebugLevel
			}
			logger, err := logging.NewLogger(logging.Config{Level: level, Format: "pretty", Writer: cmd.ErrOrStderr(), Component: "mock"})
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           api.NewMockServer(api.MockOptions{Latency: latency, Logger: logger}),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Mock store listening on http://%s\n", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("mock server failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8090", "listen address")
	cmd.Flags().DurationVar(&latency, "latency", 0, "delay added to every response")
	cmd.Flags().BoolVarP(&debug, "verbose", "v", false, "log every request")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "storefront %s\n", api.Version)
		},
	}
}
