// Package gfx analyzes the frame-render cost histogram that
// `dumpsys gfxinfo` reports, and estimates a jank-adjusted frame rate.
package gfx

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/andperf/andperf/internal/constants"
)

// ErrMalformedHistogram is returned when the HISTOGRAM block is missing or
// one of its tokens cannot be parsed.
var ErrMalformedHistogram = errors.New("malformed histogram")

var histogramRe = regexp.MustCompile(`HISTOGRAM:[ \t]*(.*)`)

// Frame is one histogram bucket: Count frames took about CostMs to render.
type Frame struct {
	CostMs int `json:"cost_ms" yaml:"cost_ms" header:"COST_MS"`
	Count  int `json:"count" yaml:"count" header:"FRAMES"`
}

// ParseHistogram extracts the buckets of the first HISTOGRAM line in raw,
// in the order they appear. Buckets with no frames are dropped.
//
//	HISTOGRAM: 5ms=0 6ms=0 16ms=50 20ms=10
func ParseHistogram(raw string) ([]Frame, error) {
	m := histogramRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: no HISTOGRAM block", ErrMalformedHistogram)
	}

	var frames []Frame
	for _, token := range strings.Fields(m[1]) {
		frame, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		if frame.Count > 0 {
			frames = append(frames, frame)
		}
	}
	return frames, nil
}

func parseToken(token string) (Frame, error) {
	cost, count, ok := strings.Cut(token, "=")
	if !ok || !strings.HasSuffix(cost, "ms") {
		return Frame{}, fmt.Errorf("%w: bad token %q", ErrMalformedHistogram, token)
	}

	costMs, err := strconv.Atoi(strings.TrimSuffix(cost, "ms"))
	if err != nil || costMs <= 0 {
		return Frame{}, fmt.Errorf("%w: bad cost in %q", ErrMalformedHistogram, token)
	}

	n, err := strconv.Atoi(count)
	if err != nil || n < 0 {
		return Frame{}, fmt.Errorf("%w: bad count in %q", ErrMalformedHistogram, token)
	}

	return Frame{CostMs: costMs, Count: n}, nil
}

// FormatHistogram renders frames in the gfxinfo token grammar.
// ParseHistogram(FormatHistogram(f)) returns f for any zero-free f.
func FormatHistogram(frames []Frame) string {
	var b strings.Builder
	b.WriteString("HISTOGRAM:")
	for _, f := range frames {
		fmt.Fprintf(&b, " %dms=%d", f.CostMs, f.Count)
	}
	return b.String()
}

// ComputeFPS estimates frames per second from a histogram, penalizing
// frames that overran the 60fps budget by the extra frame slots they
// consumed. It is a heuristic, not a measured frame rate.
//
// An empty histogram (nothing rendered) is treated as smooth: 60.
func ComputeFPS(frames []Frame) int {
	rendered := 0
	jank := 0
	for _, f := range frames {
		rendered += f.Count
		jank += jankFrames(f)
	}
	if rendered == 0 {
		return constants.TargetFPS
	}
	return constants.TargetFPS * rendered / (rendered + jank)
}

// jankFrames is the number of additional frame slots a bucket used beyond
// one slot per frame.
func jankFrames(f Frame) int {
	cost := float64(f.CostMs)
	if cost <= constants.FrameBudgetMs {
		return 0
	}
	slots := int(math.Ceil(cost / constants.FrameBudgetMs))
	return f.Count*slots - f.Count
}
