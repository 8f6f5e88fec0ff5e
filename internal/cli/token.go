package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terrabrasilis/wmscap/pkg/urlutil"
)

// tokenCommand creates the token command with its subcommands.
func (c *CLI) tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Access-token helpers for service URLs",
	}

	cmd.AddCommand(c.tokenStripCommand())

	return cmd
}

func (c *CLI) tokenStripCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strip <url>",
		Short: "Remove the access_token parameter from a URL",
		Long: `Print the URL without its access_token query parameter. A URL without
a token is printed unchanged and a warning is logged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stripped, ok := urlutil.StripAccessToken(args[0])
			if !ok {
				loggerFromContext(cmd.Context()).Warn("no access_token parameter in URL")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), stripped)
			return err
		},
	}
}
