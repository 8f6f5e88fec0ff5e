package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/terrabrasilis/wmscap/pkg/auth"
	"github.com/terrabrasilis/wmscap/pkg/config"
)

// authCommand creates the auth command with subcommands.
func (c *CLI) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the bearer token used for authenticated requests",
		Long: `Store, inspect and remove the bearer token sent to the authenticated
proxy. While a live session exists, capabilities requests go through the
authentication proxy instead of the generic OGC proxy.

Your session is stored in ~/.config/wmscap/sessions/`,
	}

	cmd.AddCommand(c.authLoginCommand())
	cmd.AddCommand(c.authLogoutCommand())
	cmd.AddCommand(c.authStatusCommand())

	return cmd
}

func (c *CLI) authLoginCommand() *cobra.Command {
	var (
		token string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a bearer token",
		Long: `Store a bearer token for later requests.

The token is taken from --token, then from $` + config.EnvToken + `, and
finally read from stdin. Without --ttl a JWT token expires with its exp
claim and an opaque token never expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv(config.EnvToken)
			}
			if token == "" {
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 64<<10))
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(string(data))
			}

			authn, err := newSessionAuthenticator()
			if err != nil {
				return err
			}
			sess, err := authn.Login(cmd.Context(), token, ttl)
			if err != nil {
				return err
			}

			printSuccess("Logged in")
			if !sess.ExpiresAt.IsZero() {
				printDetail("Expires %s", sess.ExpiresAt.Format(time.RFC1123))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "session lifetime (default: token exp claim)")

	return cmd
}

func (c *CLI) authLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			authn, err := newSessionAuthenticator()
			if err != nil {
				return err
			}
			if err := authn.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

func (c *CLI) authStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			authn, err := newSessionAuthenticator()
			if err != nil {
				return err
			}
			sess, err := authn.Session(cmd.Context())
			if errors.Is(err, auth.ErrNotLoggedIn) {
				printInfo("Not logged in")
				printNextStep("Store a token", appName+" auth login --token <token>")
				return nil
			}
			if err != nil {
				return err
			}

			printSuccess("Session")
			printKeyValue("Logged in", sess.CreatedAt.Format("Jan 2, 2006 15:04"))
			if sess.ExpiresAt.IsZero() {
				printKeyValue("Expires", "never")
			} else {
				printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006 15:04"))
			}
			printKeyValue("Token", maskToken(sess.AccessToken))
			if auth.TokenExpired(sess.AccessToken) {
				printWarning("Token is expired")
			}
			return nil
		},
	}
}

// maskToken keeps the first and last four characters of a token.
func maskToken(token string) string {
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", 8) + token[len(token)-4:]
}
