// Package adb builds the device bridge command strings used by andperf.
//
// Commands returned here are plain strings meant for a shell.Runner; this
// package never executes anything itself, except for the local server check
// in ServerRunning.
package adb

import (
	"fmt"
	"strings"
)

// Commands builds adb invocations for one target device.
type Commands struct {
	// Path is the adb executable (defaults to "adb").
	Path string
	// Serial selects a device when several are attached. Empty means the
	// only attached device.
	Serial string
}

func (c Commands) prefix() string {
	path := c.Path
	if path == "" {
		path = "adb"
	}
	if c.Serial != "" {
		return fmt.Sprintf("%s -s %s", path, c.Serial)
	}
	return path
}

// Shell wraps a device-side command in `adb shell`.
func (c Commands) Shell(cmd string) string {
	return c.prefix() + " shell " + cmd
}

// Exec builds a host-side adb subcommand such as `pull` or `devices`.
func (c Commands) Exec(args ...string) string {
	return c.prefix() + " " + strings.Join(args, " ")
}

// ProcessList lists every process on the device.
func (c Commands) ProcessList() string {
	return c.Shell("ps -ef 2>/dev/null")
}

// TaskList lists the thread ids of a process.
func (c Commands) TaskList(pid string) string {
	return c.Shell(fmt.Sprintf("ls /proc/%s/task 2>/dev/null", pid))
}

// TaskStat reads the accounting record of one thread.
func (c Commands) TaskStat(pid, tid string) string {
	return c.Shell(fmt.Sprintf("cat /proc/%s/task/%s/stat 2>/dev/null", pid, tid))
}

// ProcessStat reads the accounting record of a whole process.
func (c Commands) ProcessStat(pid string) string {
	return c.Shell(fmt.Sprintf("cat /proc/%s/stat 2>/dev/null", pid))
}

// GfxInfo dumps the frame statistics of an app.
func (c Commands) GfxInfo(app string) string {
	return c.Shell("dumpsys gfxinfo " + app)
}

// GfxReset clears the frame statistics of an app.
func (c Commands) GfxReset(app string) string {
	return c.Shell(fmt.Sprintf("dumpsys gfxinfo %s reset 2>/dev/null", app))
}

// MemInfo dumps the memory summary of an app.
func (c Commands) MemInfo(app string) string {
	return c.Shell("dumpsys meminfo " + app)
}

// CPUInfo dumps the system-wide CPU load.
func (c Commands) CPUInfo() string {
	return c.Shell("dumpsys cpuinfo")
}

// Activities dumps the activity manager state.
func (c Commands) Activities() string {
	return c.Shell("dumpsys activity activities")
}

// ScreenSize reports the physical display size.
func (c Commands) ScreenSize() string {
	return c.Shell("wm size")
}

// Property reads a system property.
func (c Commands) Property(name string) string {
	return c.Shell("getprop " + name)
}

// DeviceMemInfo reads the kernel memory summary.
func (c Commands) DeviceMemInfo() string {
	return c.Shell("cat /proc/meminfo")
}

// Screencap captures the screen into devicePath.
func (c Commands) Screencap(devicePath string) string {
	return c.Shell("screencap " + devicePath)
}

// DumpLayout dumps the current window hierarchy into devicePath.
func (c Commands) DumpLayout(devicePath string) string {
	return c.Shell("uiautomator dump " + devicePath)
}

// Pull copies a device file to the host.
func (c Commands) Pull(devicePath, hostPath string) string {
	if hostPath == "" {
		return c.Exec("pull", devicePath)
	}
	return c.Exec("pull", devicePath, hostPath)
}

// Devices lists attached devices.
func (c Commands) Devices() string {
	return c.Exec("devices")
}

// ParseTopActivity extracts the "package/activity" component from
// `dumpsys activity activities` output. The last ResumedActivity line wins.
func ParseTopActivity(dump string) (string, bool) {
	var component string
	for _, line := range strings.Split(dump, "\n") {
		if !strings.Contains(line, "ResumedActivity") {
			continue
		}
		for _, field := range strings.Fields(line) {
			if strings.Contains(field, "/") && !strings.HasPrefix(field, "ActivityRecord") {
				component = strings.TrimSuffix(field, "}")
				break
			}
		}
	}
	return component, component != ""
}

// ParseDevices returns the serials of devices in the "device" state from
// `adb devices` output.
func ParseDevices(listing string) []string {
	var serials []string
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[1] != "device" {
			continue
		}
		serials = append(serials, fields[0])
	}
	return serials
}
