package device

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/andperf/andperf/internal/cli/helpers"
	"github.com/andperf/andperf/internal/config"
	"github.com/andperf/andperf/internal/constants"
	"github.com/andperf/andperf/internal/sys/shell"
)

// ErrSystraceNotFound is returned when the configured systrace.py is missing.
var ErrSystraceNotFound = errors.New("systrace.py not found, set it with `andperf config set systrace=<path>`")

// SystraceCommand builds the systrace invocation for app writing to out.
func SystraceCommand(tool, app, out string) string {
	return fmt.Sprintf("python2.7 %s --app=%s --time=%d -o %s", tool, app, constants.SystraceSeconds, out)
}

func newSystraceCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "systrace",
		Short: "Record a systrace of the app",
		Long: fmt.Sprintf(`Record a %ds systrace of the app with the configured systrace.py.

Requires python2.7 on $PATH. The tool location defaults to
%s and can be changed with
'andperf config set systrace=<path>'.`, constants.SystraceSeconds, constants.DefaultSystraceToolPath),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.Setup(cmd)
			if err != nil {
				return err
			}
			app, err := env.App()
			if err != nil {
				return err
			}

			tool := config.ExpandHome(env.Config.SystraceToolPath)
			if _, err := os.Stat(tool); err != nil {
				return fmt.Errorf("%w: %s", ErrSystraceNotFound, tool)
			}

			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "wait for a while, generating systrace")

			out := app + "_systrace.html"
			if _, err := env.Runner.Execute(cmd.Context(), SystraceCommand(tool, app, out)); err != nil {
				var cmdErr *shell.CommandError
				if errors.As(err, &cmdErr) && cmdErr.ExitCode == 127 {
					return fmt.Errorf("python2.7 must be available in $PATH: %w", err)
				}
				return err
			}

			abs, err := filepath.Abs(out)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(env.Out, "open file://%s with Chrome\n", abs)
			return err
		},
	}
}
