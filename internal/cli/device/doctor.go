package device

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andperf/andperf/internal/adb"
	"github.com/andperf/andperf/internal/cli/helpers"
)

func newDoctorCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the adb server and attached devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.Setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			server, err := adb.ServerRunning(ctx, env.Config.ADB.Path)
			switch {
			case err != nil:
				env.Logger.Warn().Err(err).Msg("Failed to inspect local processes")
				_, _ = fmt.Fprintln(env.Out, "adb server: unknown")
			case server == nil:
				_, _ = fmt.Fprintln(env.Out, "adb server: not running (adb starts it on demand)")
			default:
				_, _ = fmt.Fprintf(env.Out, "adb server: running (pid %d)\n", server.PID)
			}

			listing, err := env.Runner.Execute(ctx, env.Cmds.Devices())
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			serials := adb.ParseDevices(listing)
			if len(serials) == 0 {
				return fmt.Errorf("no device attached")
			}
			_, _ = fmt.Fprintf(env.Out, "devices: %s\n", strings.Join(serials, ", "))

			if env.Cmds.Serial != "" && !slices.Contains(serials, env.Cmds.Serial) {
				return fmt.Errorf("configured serial %s is not attached", env.Cmds.Serial)
			}

			if app, err := env.App(); err == nil {
				_, _ = fmt.Fprintf(env.Out, "app: %s\n", app)
			} else {
				_, _ = fmt.Fprintln(env.Out, "app: not configured")
			}
			return nil
		},
	}
}
