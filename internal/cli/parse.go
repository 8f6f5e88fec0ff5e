package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terrabrasilis/wmscap/pkg/wms"
)

// parseCommand creates the parse command.
func (c *CLI) parseCommand() *cobra.Command {
	var layers bool

	cmd := &cobra.Command{
		Use:   "parse <file|->",
		Short: "Convert a capabilities XML document to JSON",
		Long: `Parse a WMS 1.3.0 capabilities document and print its JSON form,
keyed by the root element name. Use "-" to read from stdin.

With --layers, print the layer tree instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, err := readCapabilities(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if layers {
				return writeLayerTree(cmd.OutOrStdout(), caps)
			}
			return writeJSON(cmd.OutOrStdout(), caps)
		},
	}

	cmd.Flags().BoolVar(&layers, "layers", false, "print the layer tree")

	return cmd
}

// readCapabilities parses the document at path, or stdin when path is "-".
func readCapabilities(stdin io.Reader, path string) (*wms.Capabilities, error) {
	if path == "-" {
		return wms.ParseReader(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return wms.ParseReader(f)
}

func writeJSON(w io.Writer, caps *wms.Capabilities) error {
	data, err := caps.JSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

func writeLayerTree(w io.Writer, caps *wms.Capabilities) error {
	var err error
	caps.Walk(func(l *wms.Layer, depth int) bool {
		name := l.Name
		if name == "" {
			name = "(unnamed)"
		}
		line := strings.Repeat("  ", depth) + name
		if l.Title != "" {
			line += "  " + l.Title
		}
		if len(l.Dimension) > 0 {
			line += fmt.Sprintf("  [%s]", l.Dimension[0].Name)
		}
		_, err = fmt.Fprintln(w, line)
		return err == nil
	})
	return err
}
