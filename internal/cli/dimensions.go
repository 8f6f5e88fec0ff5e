package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/terrabrasilis/wmscap/pkg/errors"
	"github.com/terrabrasilis/wmscap/pkg/wms"
)

// dimensionsCommand creates the dimensions command.
func (c *CLI) dimensionsCommand() *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "dimensions <url|file|->",
		Short: "List the time dimension values of a layer",
		Long: `Print the values of a layer's first dimension, one per line, as
local RFC 3339 timestamps.

Without --layer the first nested layer of the document is used. The
argument is fetched when it is an http(s) URL and read as a file otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				caps *wms.Capabilities
				err  error
			)
			if isURL(args[0]) {
				cfg, cerr := c.loadConfig()
				if cerr != nil {
					return cerr
				}
				client, cerr := c.newClient(cfg, c.newAuthenticator(cfg))
				if cerr != nil {
					return cerr
				}
				caps, err = client.Fetch(cmd.Context(), args[0])
			} else {
				caps, err = readCapabilities(cmd.InOrStdin(), args[0])
			}
			if err != nil {
				return err
			}

			times, err := layerDimensions(caps, layer)
			if err != nil {
				return err
			}
			for _, t := range times {
				fmt.Fprintln(cmd.OutOrStdout(), t.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&layer, "layer", "l", "", "layer name (default: first nested layer)")

	return cmd
}

func layerDimensions(caps *wms.Capabilities, name string) ([]time.Time, error) {
	if name == "" {
		return wms.Dimensions(caps)
	}
	l := caps.FindLayer(name)
	if l == nil {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "layer %q not found", name)
	}
	return wms.LayerDimensions(l)
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
