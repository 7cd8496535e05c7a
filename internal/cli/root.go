// Package cli implements the nocodb-mcp command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrewlwn77/nocodb-mcp/internal/config"
	"github.com/andrewlwn77/nocodb-mcp/internal/nocodb"
	"github.com/andrewlwn77/nocodb-mcp/internal/paths"
	"github.com/andrewlwn77/nocodb-mcp/internal/tools"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

const logPrefix = "nocodb-mcp: "

// rootFlags holds global flag values shared by all subcommands.
type rootFlags struct {
	configDir   string
	baseURL     string
	apiToken    string
	authToken   string
	defaultBase string
	verbose     bool
}

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// NewRootCmd creates the top-level "nocodb-mcp" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "nocodb-mcp",
		Short: "Expose a NocoDB server as a catalog of callable tools",
		Long: "nocodb-mcp connects to a NocoDB server and serves its bases, tables,\n" +
			"records, views and attachments as named tools for a tool-calling host.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		// Execute reports errors itself.
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/nocodb-mcp)")
	pf.StringVar(&f.baseURL, "base-url", "", "NocoDB server URL (env "+config.EnvBaseURL+")")
	pf.StringVar(&f.apiToken, "api-token", "", "API token sent as xc-token (env "+config.EnvAPIToken+")")
	pf.StringVar(&f.authToken, "auth-token", "", "session token sent as xc-auth (env "+config.EnvAuthToken+")")
	pf.StringVar(&f.defaultBase, "default-base", "", "base id used when a tool omits base_id (env "+config.EnvDefaultBase+")")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log every NocoDB round trip to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(f))
	root.AddCommand(newServeCmd(f))
	root.AddCommand(newCallCmd(f))
	root.AddCommand(newToolsCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, logPrefix+err.Error())
	}
	os.Exit(exitCode(err))
}

// exitCode maps err to a process exit code. Backend transport failures
// are system errors; anything unclassified is a user error.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrTransport) {
		return exitSysError
	}
	return exitUserError
}

func (f *rootFlags) overrides() config.Overrides {
	return config.Overrides{
		BaseURL:     f.baseURL,
		APIToken:    f.apiToken,
		AuthToken:   f.authToken,
		DefaultBase: f.defaultBase,
	}
}

// newLogger returns the stderr logger used by long-running commands.
// stdout is left to the request/response exchange.
func newLogger(w io.Writer) *log.Logger {
	return log.New(w, logPrefix, log.LstdFlags)
}

// loadConfig resolves the config directory and loads the configuration
// without validating it.
func (f *rootFlags) loadConfig() (string, types.Config, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return "", types.Config{}, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(config.Options{
		ConfigDir: configDir,
		EnvFile:   config.DefaultEnvFile,
		Overrides: f.overrides(),
	})
	if err != nil {
		return "", types.Config{}, userError(fmt.Errorf("load config: %w", err))
	}
	return configDir, cfg, nil
}

// openCatalog loads and validates the configuration, then binds a catalog
// to a new client.
func (f *rootFlags) openCatalog(logger *log.Logger) (*tools.Catalog, error) {
	_, cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, userError(fmt.Errorf("invalid config: %w", err))
	}
	if msg := config.SessionWarning(cfg.AuthToken, time.Now()); msg != "" {
		logger.Println(msg)
	}

	var opts []nocodb.Option
	if f.verbose {
		opts = append(opts, nocodb.WithLogger(logger))
	}
	client, err := nocodb.New(cfg, opts...)
	if err != nil {
		return nil, userError(fmt.Errorf("create client: %w", err))
	}
	return tools.New(client, cfg.DefaultBase), nil
}
