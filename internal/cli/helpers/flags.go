package helpers

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/andperf/andperf/internal/config"
)

// AddFormatFlag adds a standard --format/-o flag to a command.
// Validates that the format is in the supportedFormats list.
func AddFormatFlag(cmd *cobra.Command, formatVar *string, defaultFormat OutputFormat, supportedFormats []OutputFormat) {
	formatNames := make([]string, len(supportedFormats))
	for i, f := range supportedFormats {
		formatNames[i] = string(f)
	}

	description := fmt.Sprintf("Output format (%s)", strings.Join(formatNames, ", "))
	cmd.Flags().StringVarP(formatVar, "format", "o", string(defaultFormat), description)

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return formatNames, cobra.ShellCompDirectiveNoFileComp
	})
}

// ValidateFormat checks if the format is in the supported list.
func ValidateFormat(format string, supported []OutputFormat) error {
	for _, s := range supported {
		if format == string(s) {
			return nil
		}
	}

	supportedNames := make([]string, len(supported))
	for i, s := range supported {
		supportedNames[i] = string(s)
	}

	return fmt.Errorf("unsupported format %q, must be one of: %s",
		format, strings.Join(supportedNames, ", "))
}

// IntervalFlag is a duration flag whose default comes from the config when
// the user did not set it.
type IntervalFlag struct {
	name  string
	value time.Duration
	flags *pflag.FlagSet
}

// AddIntervalFlag registers --<name> on flags. Plain numbers are accepted as
// seconds.
func AddIntervalFlag(flags *pflag.FlagSet, name string, def time.Duration, usage string) *IntervalFlag {
	f := &IntervalFlag{name: name, value: def, flags: flags}
	flags.Var((*secondsValue)(&f.value), name, usage)
	return f
}

// Resolve returns the flag value if it was set, otherwise configured.
func (f *IntervalFlag) Resolve(configured time.Duration) time.Duration {
	if f.flags.Changed(f.name) {
		return f.value
	}
	return configured
}

// secondsValue is a pflag.Value that parses "2", "2.5" or "2s".
type secondsValue time.Duration

func (v *secondsValue) String() string {
	return time.Duration(*v).String()
}

func (v *secondsValue) Set(s string) error {
	d, err := config.ParseSeconds(s)
	if err != nil {
		return err
	}
	*v = secondsValue(d)
	return nil
}

func (v *secondsValue) Type() string {
	return "duration"
}
