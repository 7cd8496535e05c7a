package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/andrewlwn77/nocodb-mcp/internal/tools"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// listToolsMethod is the request tool name that returns the catalog.
const listToolsMethod = "tools/list"

// maxRequestSize bounds one request line.
const maxRequestSize = 16 << 20

// request is one line read from the host.
type request struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// response is one line written back. Exactly one of Result and Error is set.
type response struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  *types.Error    `json:"error,omitempty"`
}

// toolList is the result of a tools/list request.
type toolList struct {
	Tools []tools.Tool `json:"tools"`
}

func newServeCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tool catalog over stdin and stdout",
		Long: "Read one JSON request per line from stdin and write one JSON response\n" +
			"per line to stdout. A request is {\"id\", \"tool\", \"arguments\"}; the tool\n" +
			"\"" + listToolsMethod + "\" returns the catalog.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr())
			cat, err := f.openCatalog(logger)
			if err != nil {
				return err
			}
			logger.Printf("serving %d tools", len(cat.Tools()))
			if err := serve(cmd.Context(), cat, cmd.InOrStdin(), cmd.OutOrStdout(), logger); err != nil {
				return sysError(err)
			}
			return nil
		},
	}
}

// serve answers requests from in until EOF or ctx is done. Requests are
// handled one at a time, in order. A malformed line gets an error
// response; only read and write failures end the loop early.
func serve(ctx context.Context, cat *tools.Catalog, in io.Reader, out io.Writer, logger *log.Logger) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxRequestSize)
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		resp := handle(ctx, cat, line)
		if err := enc.Encode(resp); err != nil {
			if resp.Error != nil {
				return fmt.Errorf("write response: %w", err)
			}
			// The result did not encode; answer with the failure instead.
			resp = response{ID: resp.ID, Error: toWireError(types.Errorf(types.ErrInvalidArgument, "encode result: %v", err))}
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		}
		if resp.Error != nil {
			logger.Printf("request %s failed: %s", resp.ID, resp.Error.Message)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

// handle decodes one request line and runs it.
func handle(ctx context.Context, cat *tools.Catalog, line []byte) response {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return response{
			ID:    newRequestID(),
			Error: toWireError(types.Errorf(types.ErrInvalidArgument, "invalid request: %v", err)),
		}
	}
	id := req.ID
	if len(id) == 0 || bytes.Equal(id, []byte("null")) {
		id = newRequestID()
	}

	if req.Tool == listToolsMethod {
		return response{ID: id, Result: toolList{Tools: cat.Tools()}}
	}
	if req.Tool == "" {
		return response{ID: id, Error: toWireError(types.Errorf(types.ErrInvalidArgument, "Missing tool name"))}
	}

	result, err := cat.Dispatch(ctx, req.Tool, req.Arguments)
	if err != nil {
		return response{ID: id, Error: toWireError(err)}
	}
	return response{ID: id, Result: result}
}

// newRequestID returns a quoted UUID v7 for requests that carry no id.
func newRequestID() json.RawMessage {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return json.RawMessage(`"` + id.String() + `"`)
}

// toWireError converts err to the response error shape.
func toWireError(err error) *types.Error {
	if e, ok := types.AsError(err); ok {
		return e
	}
	return &types.Error{Message: err.Error()}
}
