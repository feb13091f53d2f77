package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/loader"
	"github.com/roach88/stencil/internal/meta"
)

// RootOptions holds global flags for all commands. After the root
// command's pre-run they hold the merged value of flag, STENCIL_*
// environment variable and stencil.yaml, in that order of precedence.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // explicit config file; default is ./stencil.yaml if present
	Dialect  string
	DSN      string
	Entities string // entity file or directory
	Entity   string

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// configKeys are the flags that may also come from the environment or the
// config file.
var configKeys = []string{"verbose", "format", "dialect", "dsn", "entities", "entity"}

// NewRootCommand creates the root command for the stencil CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stencil",
		Short: "stencil - dialect-aware SQL templates",
		Long: `Render SQL templates with {{placeholders}} for MySQL, SQL Server,
PostgreSQL, Oracle, DB2 and SQLite from one source text.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.Config, "config", "", "config file (default ./stencil.yaml)")
	pf.StringVarP(&opts.Dialect, "dialect", "d", "", "target dialect (mysql, sqlserver, postgres, oracle, db2, sqlite)")
	pf.StringVar(&opts.DSN, "dsn", "", "connection string to infer the dialect from")
	pf.StringVar(&opts.Entities, "entities", "", "entity description file or directory (CUE or YAML)")
	pf.StringVar(&opts.Entity, "entity", "", "entity to render against")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewGenCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))

	return cmd
}

// load merges flags, environment and config file into o.
func (o *RootOptions) load(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("STENCIL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	if o.Config != "" {
		v.SetConfigFile(o.Config)
	} else {
		v.SetConfigName("stencil")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.Config != "" || !errors.As(err, &notFound) {
			return err
		}
	}

	o.Verbose = v.GetBool("verbose")
	o.Format = v.GetString("format")
	o.Dialect = v.GetString("dialect")
	o.DSN = v.GetString("dsn")
	o.Entities = v.GetString("entities")
	o.Entity = v.GetString("entity")
	return nil
}

// bindFlags binds the config keys present in flags.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range configKeys {
		if f := flags.Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Logger returns the command logger. It discards until the root pre-run
// has installed one.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}

// descriptor resolves --dialect, falling back to --dsn.
func (o *RootOptions) descriptor() (dialect.Descriptor, error) {
	registry := dialect.Default()
	switch {
	case o.Dialect != "":
		return registry.Lookup(o.Dialect)
	case o.DSN != "":
		return registry.ResolveDSN(o.DSN)
	}
	return dialect.Descriptor{}, fmt.Errorf("no dialect: set --dialect or --dsn")
}

// table resolves --entity in --entities. With no --entities there is no
// table; a file holding a single entity needs no --entity.
func (o *RootOptions) table() (*meta.Table, error) {
	if o.Entities == "" {
		if o.Entity != "" {
			return nil, fmt.Errorf("--entity %s given without --entities", o.Entity)
		}
		return nil, nil
	}

	set, err := loader.LoadDir(o.Entities)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	if o.Entity == "" {
		if set.Len() != 1 {
			return nil, fmt.Errorf("%s defines %d entities, choose one with --entity (have %v)", o.Entities, set.Len(), set.Names())
		}
		return set.Entities()[0].Table, nil
	}
	t, ok := set.Lookup(o.Entity)
	if !ok {
		return nil, fmt.Errorf("entity %q not found (have %v)", o.Entity, set.Names())
	}
	return t, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
