// Package cli implements the prexsyn command-line tool: root command,
// global flags, CLIContext propagation, and output formatting, shared by
// every subcommand under this package.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prexsyn/engine/internal/config"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	"github.com/prexsyn/engine/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
	ServerAddr   string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool
	NoColor      bool
}

// NewRootCommand creates the root cobra command with all global flags.
// Subcommands are mounted separately via RegisterCommands so that tests can
// exercise flag registration without constructing a CommandDependencies.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "prexsyn",
		Short:   "prexsyn — synthetic synthesis-program generation engine CLI",
		Long:    "prexsyn drives the chemical-space-backed random-walk synthesis generator:\nbuild a cached ChemicalSpace from building blocks and reaction SMARTS,\npreview generated synthesis programs, and run the worker pipeline\nin-process.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./prexsyn.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "global operation timeout")
	pf.StringVar(&opts.ServerAddr, "server", "", "admin gRPC server address (default: localhost:<server.port>)")

	return cmd
}

// RegisterCommands mounts every subcommand onto rootCmd. Called from
// cmd/prexsyn/main.go after NewRootCommand.
func RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		NewBuildSpaceCmd(),
		NewGenerateCmd(),
		NewServeCmd(),
	)
}

// persistentPreRun initializes config and logger, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
		Verbose:      opts.Verbose,
		NoColor:      opts.NoColor,
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, cliCtx)
	cmd.SetContext(ctx)

	return nil
}

// initConfig loads configuration with priority: explicit --config path,
// then a default search path, then built-in defaults with no I/O
// requirement. A found file is loaded through config.Load, which applies
// ApplyDefaults and full Validate — so explicit/discovered config files
// must describe a runnable engine. The no-file-found fallback returns a
// defaulted Config without validation, since CLI preview commands
// (generate, build-space) do not require the full infrastructure surface
// (Redis/Kafka/MinIO/RunLedger) that Validate demands.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./prexsyn.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".prexsyn", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/prexsyn/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg, nil
}

// initLogger creates a logger configured for CLI usage (output to stderr).
func initLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	level := strings.ToLower(opts.LogLevel)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		level = "info"
	}
	if opts.Verbose {
		level = "debug"
	}
	_ = cfg

	logCfg := logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return logging.NewLogger(logCfg)
}

// adminServerAddr resolves the admin gRPC address a subcommand should dial:
// the explicit --server flag if set, else host:port from cfg.Server.
func adminServerAddr(cfg *config.Config, opts *RootOptions) string {
	if opts.ServerAddr != "" {
		return opts.ServerAddr
	}
	host := cfg.Server.Host
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s:%d", host, cfg.Server.Port)
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.InvalidParam("command context is nil")
	}

	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.InvalidParam("CLIContext not found in command context")
	}

	return cliCtx, nil
}

// Execute builds the root command, mounts subcommands, and runs it.
func Execute() error {
	rootCmd := NewRootCommand()
	RegisterCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}

	return nil
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	switch strings.ToLower(cliCtx.OutputFormat) {
	case "json":
		return printJSON(cmd, data)
	case "table":
		return printTable(cmd, data)
	default:
		return printText(cmd, data)
	}
}

// printJSON outputs data as indented JSON to stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printText outputs data as a simple string representation to stdout.
func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// printTable outputs data as a table if it implements the tableProvider
// interface, otherwise falls back to text.
func printTable(cmd *cobra.Command, data interface{}) error {
	type tableProvider interface {
		TableHeaders() []string
		TableRows() [][]string
	}

	if tp, ok := data.(tableProvider); ok {
		out := FormatTable(tp.TableHeaders(), tp.TableRows())
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	}

	return printText(cmd, data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder

	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, colWidths[i]))
	}
	sb.WriteString("\n")

	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")

	for _, row := range rows {
		for i := 0; i < len(headers); i++ {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
