// Package device implements the device helper commands: cpuinfo,
// top-activity, top-app, dev-screen, dev-mem, screencap and dump-layout.
package device

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andperf/andperf/internal/adb"
	"github.com/andperf/andperf/internal/cli/helpers"
)

const (
	screencapDevicePath = "/sdcard/screencap.png"
	layoutDevicePath    = "/sdcard/window_dump.xml"
	layoutHostFile      = "window_dump.xml"
	defaultScreencap    = "AndPerfScreencap.png"
)

// Commands returns every device helper command.
func Commands(opts *helpers.Options) []*cobra.Command {
	return []*cobra.Command{
		newCPUInfoCmd(opts),
		newTopActivityCmd(opts),
		newTopAppCmd(opts),
		newDevScreenCmd(opts),
		newDevMemCmd(opts),
		newScreencapCmd(opts),
		newDumpLayoutCmd(opts),
		newSystraceCmd(opts),
		newDoctorCmd(opts),
	}
}

func newCPUInfoCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "cpuinfo",
		Short: "Print the device CPU load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.Setup(cmd)
			if err != nil {
				return err
			}
			out, err := env.Runner.Execute(cmd.Context(), env.Cmds.CPUInfo())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(env.Out, out)
			return err
		},
	}
}

func topActivity(cmd *cobra.Command, env *helpers.Env) (string, error) {
	dump, err := env.Runner.Execute(cmd.Context(), env.Cmds.Activities())
	if err != nil {
		return "", err
	}
	component, ok := adb.ParseTopActivity(dump)
	if !ok {
		return "", fmt.Errorf("no resumed activity found")
	}
	return component, nil
}

func newTopActivityCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "top-activity",
		Short: "Print the resumed activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.Setup(cmd)
			if err != nil {
				return err
			}
			component, err := topActivity(cmd, env)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(env.Out, component)
			return err
		},
	}
}

func newTopAppCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "top-app",
		Short: "Print the package of the resumed activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.Setup(cmd)
			if err != nil {
				return err
			}
			component, err := topActivity(cmd, env)
			if err != nil {
				return err
			}
			pkg, _, _ := strings.Cut(component, "/")
			_, err = fmt.Fprintln(env.Out, pkg)
			return err
		},
	}
}

func newDevScreenCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "dev-screen",
		Short: "Print the display size and density",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.Setup(cmd)
			if err != nil {
				return err
			}
			size, err := env.Runner.Execute(cmd.Context(), env.Cmds.ScreenSize())
			if err != nil {
				return err
			}
			density, err := env.Runner.Execute(cmd.Context(), env.Cmds.Property("ro.sf.lcd_density"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(env.Out, "%s\ndensity: %s\n", strings.TrimSpace(size), strings.TrimSpace(density))
			return err
		},
	}
}

func newDevMemCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "dev-mem",
		Short: "Print the device memory summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.Setup(cmd)
			if err != nil {
				return err
			}
			meminfo, err := env.Runner.Execute(cmd.Context(), env.Cmds.DeviceMemInfo())
			if err != nil {
				return err
			}
			lowRAM, err := env.Runner.Execute(cmd.Context(), env.Cmds.Property("ro.config.low_ram"))
			if err != nil {
				return err
			}
			lowRAM = strings.TrimSpace(lowRAM)
			if lowRAM == "" {
				lowRAM = "false"
			}
			_, err = fmt.Fprintf(env.Out, "%s\nLOW MEM? %s\n", strings.TrimRight(meminfo, "\n"), lowRAM)
			return err
		},
	}
}

func newScreencapCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "screencap [file]",
		Short: "Save a screenshot to the host",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := defaultScreencap
			if len(args) == 1 {
				file = args[0]
			}
			env, err := opts.Setup(cmd)
			if err != nil {
				return err
			}
			return capture(cmd, env, env.Cmds.Screencap(screencapDevicePath), screencapDevicePath, file)
		},
	}
}

func newDumpLayoutCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "dump-layout",
		Short: "Save the window hierarchy of the top activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.Setup(cmd)
			if err != nil {
				return err
			}
			return capture(cmd, env, env.Cmds.DumpLayout(layoutDevicePath), layoutDevicePath, layoutHostFile)
		},
	}
}

// capture runs produce on the device, pulls devicePath to hostPath and
// prints the file URL.
func capture(cmd *cobra.Command, env *helpers.Env, produce, devicePath, hostPath string) error {
	ctx := cmd.Context()
	if _, err := env.Runner.Execute(ctx, produce); err != nil {
		return err
	}
	if _, err := env.Runner.Execute(ctx, env.Cmds.Pull(devicePath, hostPath)); err != nil {
		return err
	}
	return printFileURL(env, hostPath)
}

func printFileURL(env *helpers.Env, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	_, err = fmt.Fprintf(env.Out, "file://%s\n", abs)
	return err
}
