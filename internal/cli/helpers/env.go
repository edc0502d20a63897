package helpers

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/andperf/andperf/internal/adb"
	"github.com/andperf/andperf/internal/config"
	"github.com/andperf/andperf/internal/logging"
	"github.com/andperf/andperf/internal/sys/shell"
)

// Options holds the persistent flags shared by every command.
type Options struct {
	App      string
	Serial   string
	LogLevel string

	// Loader and Runner override the defaults; tests set them.
	Loader *config.Loader
	Runner shell.Runner
}

// AddFlags adds the persistent flags to a FlagSet.
func (o *Options) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.App, "app", "a", "", "Target app package (defaults to config `app`)")
	flags.StringVarP(&o.Serial, "serial", "s", "", "Device serial (defaults to config `adb.serial`)")
	flags.StringVar(&o.LogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
}

// Env is everything a command needs to talk to the device.
type Env struct {
	Config *config.Config
	Logger zerolog.Logger
	Runner shell.Runner
	Cmds   adb.Commands
	Out    io.Writer

	opts *Options
}

// Setup loads the config, applies flag overrides and builds the logger and
// runner for cmd.
func (o *Options) Setup(cmd *cobra.Command) (*Env, error) {
	loader := o.Loader
	if loader == nil {
		loader = config.NewLoader()
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if o.Serial != "" {
		cfg.ADB.Serial = o.Serial
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stderr := cmd.ErrOrStderr()
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty || logging.IsTerminal(stderr),
		Output: stderr,
	})

	runner := o.Runner
	if runner == nil {
		runner = shell.NewExecRunner(logger)
	}

	return &Env{
		Config: cfg,
		Logger: logger.With().Str("command", cmd.CommandPath()).Logger(),
		Runner: runner,
		Cmds: adb.Commands{
			Path:   cfg.ADB.Path,
			Serial: cfg.ADB.Serial,
		},
		Out:  cmd.OutOrStdout(),
		opts: o,
	}, nil
}

// App resolves the target app from --app or the config.
func (e *Env) App() (string, error) {
	return e.Config.ResolveApp(e.opts.App)
}

// Format writes data to the command output in the given format.
func (e *Env) Format(format string, data any) error {
	f, err := NewFormatter(OutputFormat(format))
	if err != nil {
		return err
	}
	return f.Format(data, e.Out)
}
