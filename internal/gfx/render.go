package gfx

import (
	"fmt"
	"io"
	"strings"
)

const maxBarWidth = 50

// WriteHistogram writes one line per bucket with a bar scaled to the
// largest bucket.
func WriteHistogram(w io.Writer, frames []Frame) error {
	peak := 0
	for _, f := range frames {
		peak = max(peak, f.Count)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%8s %8s\n", "cost/ms", "frames")
	for _, f := range frames {
		width := 0
		if peak > 0 {
			width = f.Count * maxBarWidth / peak
		}
		fmt.Fprintf(&b, "%8d %8d %s\n", f.CostMs, f.Count, strings.Repeat("#", max(width, 1)))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Summary describes a series of fps samples.
type Summary struct {
	Samples int     `json:"samples" yaml:"samples" header:"SAMPLES"`
	Min     int     `json:"min" yaml:"min" header:"MIN"`
	Max     int     `json:"max" yaml:"max" header:"MAX"`
	Mean    float64 `json:"mean" yaml:"mean" header:"MEAN"`
}

// Summarize computes min, max and mean of fps samples.
func Summarize(samples []int) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	s := Summary{Samples: len(samples), Min: samples[0], Max: samples[0]}
	total := 0
	for _, v := range samples {
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		total += v
	}
	s.Mean = float64(total) / float64(len(samples))
	return s
}
