package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/storefront-console/storefront/internal/auth"
	apperrors "github.com/storefront-console/storefront/internal/errors"
)

const labelLogin = "Login"

func newLoginCmd(opts *options) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the store",
		Long: `Sign in to the store and keep the session token for later commands.

Missing credentials are prompted for.

Examples:
  storefront login
  storefront login -u mor_2314 -p '83r5^_'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var err error
			if username == "" {
				if username, err = promptInput("Username"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword("Password"); err != nil {
					return err
				}
			}

			rt, err := openRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			h := rt.handler(apperrors.LoginMessages)
			_, err = run(ctx, h, labelLogin, func(ctx context.Context) (struct{}, error) {
				token, err := rt.client.Authenticate(ctx, username, password)
				if err != nil {
					return struct{}{}, err
				}
				return struct{}{}, rt.session.Establish(ctx, token)
			})
			if err != nil {
				return err
			}

			who := rt.session.Subject()
			if who == "" {
				who = username
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", who)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "user name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Long: `End the stored session.

With --purge the local token file and its encryption key are removed as
well; a new key is generated on the next login.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if rt.session.CheckSession(ctx) {
				rt.session.End(ctx)
				fmt.Fprintln(out, "Logged out.")
			} else {
				fmt.Fprintln(out, "Not logged in.")
			}

			if !purge {
				return nil
			}
			p, ok := rt.store.(auth.Purger)
			if !ok {
				fmt.Fprintf(out, "Nothing to purge for the %s token store.\n", rt.cfg.TokenStore.Backend)
				return nil
			}
			if err := p.Purge(); err != nil {
				return fmt.Errorf("failed to purge local key material: %w", err)
			}
			fmt.Fprintln(out, "Local token file and encryption key removed.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "also remove the local token file and encryption key")
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and API status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			session := "not logged in"
			if rt.session.CheckSession(ctx) {
				session = "logged in"
				if who := rt.session.Subject(); who != "" {
					session += " as " + who
				}
			}

			h := rt.handler(nil)
			var reachability string
			took, err := run(ctx, h, "Status", rt.client.Ping)
			if err != nil {
				reachability = UserMessage(err)
			} else {
				reachability = fmt.Sprintf("ok (%s)", took.Round(time.Millisecond))
			}
			stats := rt.client.Statistics()

			printPairs(cmd.OutOrStdout(), [][2]string{
				{"Session", session},
				{"Token store", rt.cfg.TokenStore.Backend},
				{"API", rt.client.BaseURL()},
				{"Reachable", reachability},
				{"Requests", fmt.Sprintf("%d sent, %d failed", stats.TotalRequests, stats.FailedRequests)},
				{"Config", rt.manager.ConfigPath()},
			})
			return nil
		},
	}
}
