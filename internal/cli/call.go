package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newCallCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-arguments]",
		Short: "Run one tool and print its result",
		Long: "Run one tool with a JSON argument object and print the result as\n" +
			"indented JSON. Pass \"-\" to read the arguments from stdin.",
		Example: `  nocodb-mcp call list_bases
  nocodb-mcp call list_records '{"base_id":"p_abc","table_name":"orders","limit":5}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := callArguments(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}
			cat, err := f.openCatalog(newLogger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			result, err := cat.Dispatch(cmd.Context(), args[0], raw)
			if err != nil {
				if e := toWireError(err); len(e.Details) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", e.Details)
				}
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

// callArguments returns the argument object given on the command line,
// read from stdin for "-", or an empty object.
func callArguments(stdin io.Reader, args []string) (json.RawMessage, error) {
	if len(args) == 0 {
		return json.RawMessage("{}"), nil
	}
	data := []byte(args[0])
	if args[0] == "-" {
		var err error
		if data, err = io.ReadAll(stdin); err != nil {
			return nil, sysError(fmt.Errorf("read arguments: %w", err))
		}
	}
	if !json.Valid(data) {
		return nil, userError(errors.New("arguments are not valid JSON"))
	}
	return json.RawMessage(data), nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("encode result: %w", err))
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return sysError(fmt.Errorf("write result: %w", err))
	}
	return nil
}
