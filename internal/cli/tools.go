package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/andrewlwn77/nocodb-mcp/internal/tools"
)

var (
	toolNameFmt = color.New(color.FgCyan, color.Bold).SprintFunc()
	requiredFmt = color.New(color.FgYellow).SprintFunc()
)

func newToolsCmd() *cobra.Command {
	var jsonMode bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tool catalog",
		Long:  "List every tool with its required arguments and description. No server\nconnection is needed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Listing reads descriptors only and never touches the client.
			cat := tools.New(nil, "")
			if jsonMode {
				return printJSON(cmd.OutOrStdout(), toolList{Tools: cat.Tools()})
			}
			return writeToolTable(cmd.OutOrStdout(), cat.Tools())
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "print the descriptors as JSON")
	return cmd
}

// writeToolTable prints one line per tool: name, required arguments and
// the first line of the description.
func writeToolTable(w io.Writer, list []tools.Tool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range list {
		summary, _, _ := strings.Cut(t.Description, "\n")
		required := "-"
		if len(t.InputSchema.Required) > 0 {
			required = strings.Join(t.InputSchema.Required, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", toolNameFmt(t.Name), requiredFmt(required), summary)
	}
	return tw.Flush()
}
