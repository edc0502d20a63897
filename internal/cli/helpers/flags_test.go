package helpers

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want time.Duration
	}{
		{name: "unset uses configured", args: nil, want: 7 * time.Second},
		{name: "bare seconds", args: []string{"--interval", "3"}, want: 3 * time.Second},
		{name: "fractional seconds", args: []string{"--interval=0.25"}, want: 250 * time.Millisecond},
		{name: "go duration", args: []string{"--interval", "1m"}, want: time.Minute},
		{name: "explicit zero", args: []string{"--interval", "0"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			f := AddIntervalFlag(flags, "interval", 10*time.Second, "usage")
			require.NoError(t, flags.Parse(tt.args))
			assert.Equal(t, tt.want, f.Resolve(7*time.Second))
		})
	}
}

func TestIntervalFlag_Invalid(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddIntervalFlag(flags, "interval", time.Second, "usage")
	require.Error(t, flags.Parse([]string{"--interval", "soon"}))
}

func TestIntervalFlag_DefaultShownInHelp(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddIntervalFlag(flags, "interval", 2*time.Second, "usage")
	assert.Equal(t, "2s", flags.Lookup("interval").DefValue)
}

func TestAddFormatFlag(t *testing.T) {
	var format string
	cmd := &cobra.Command{Use: "test"}
	AddFormatFlag(cmd, &format, FormatTable, AllFormats)

	require.NoError(t, cmd.Flags().Parse([]string{"-o", "yaml"}))
	assert.Equal(t, "yaml", format)
	assert.Contains(t, cmd.Flags().Lookup("format").Usage, "table, json, csv, yaml")
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, ValidateFormat("csv", AllFormats))

	err := ValidateFormat("xml", []OutputFormat{FormatJSON, FormatYAML})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json, yaml")
}
