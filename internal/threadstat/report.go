package threadstat

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/andperf/andperf/internal/constants"
)

const (
	rowFormat = "%-20s %-6s | %-5s %-7s | %-5s %-7s | %8s %s"
	ruleWidth = 80
)

var headerStyle = lipgloss.NewStyle().Reverse(true)

// DiffAndReport diffs the two samples and writes the thread table to w.
// Nothing is written if the window is invalid. It returns exactly the rows
// that were printed.
func DiffAndReport(w io.Writer, before, after *ProcessSample) ([]Contribution, error) {
	win, err := Diff(before, after)
	if err != nil {
		return nil, err
	}

	rows := win.Significant(constants.MinContributionShare)
	if err := WriteReport(w, win, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteReport writes the process summary followed by one line per row.
func WriteReport(w io.Writer, win *Window, rows []Contribution) error {
	rule := strings.Repeat("-", ruleWidth)

	var b strings.Builder
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "proc: %s (pid %s)\n", win.ProcessName, win.PID)
	fmt.Fprintf(&b, "thread count: %d\n", win.ThreadCount)
	fmt.Fprintf(&b, "proc_utime: %d\n", win.DeltaUser)
	fmt.Fprintf(&b, "proc_stime: %d\n", win.DeltaKernel)
	if win.Latency > 0 {
		fmt.Fprintf(&b, "dump cost: %.2fs\n", win.Latency.Seconds())
	}
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)

	header := fmt.Sprintf(rowFormat, "NAME", "TID", "UTIME", "", "STIME", "", "U+S TIME", "")
	fmt.Fprintln(&b, headerStyle.Render(header))

	for _, c := range rows {
		fmt.Fprintf(&b, rowFormat+"\n",
			c.Name, c.TID,
			fmt.Sprint(c.DeltaUser), percent(c.UserShare),
			fmt.Sprint(c.DeltaKernel), percent(c.KernelShare),
			percent(math.Abs(c.TotalShare)), bar(c.TotalShare))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func percent(share float64) string {
	return fmt.Sprintf("%.2f%%", share*100)
}

// bar draws one '=' per percent of process time.
func bar(share float64) string {
	return strings.Repeat("=", int(math.Abs(share)*100))
}
