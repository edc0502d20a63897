// Package meminfo parses the app summary block of `dumpsys meminfo`.
package meminfo

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMissingField is wrapped by MissingFieldError.
var ErrMissingField = errors.New("meminfo field missing")

// MissingFieldError reports the first mandatory label absent from a dump.
type MissingFieldError struct {
	Label string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("meminfo field missing: %q", e.Label)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// Snapshot is the app summary of one meminfo dump, in megabytes.
type Snapshot struct {
	JavaHeap     float64 `json:"java_heap" yaml:"java_heap" header:"JAVA_HEAP"`
	NativeHeap   float64 `json:"native_heap" yaml:"native_heap" header:"NATIVE_HEAP"`
	Code         float64 `json:"code" yaml:"code" header:"CODE"`
	Stack        float64 `json:"stack" yaml:"stack" header:"STACK"`
	Graphics     float64 `json:"graphics" yaml:"graphics" header:"GRAPHICS"`
	PrivateOther float64 `json:"private_other" yaml:"private_other" header:"PRIVATE_OTHER"`
	System       float64 `json:"system" yaml:"system" header:"SYSTEM"`
	Total        float64 `json:"total" yaml:"total" header:"TOTAL"`

	Raw string `json:"-" yaml:"-"`
}

type field struct {
	label string
	re    *regexp.Regexp
	dst   func(*Snapshot) *float64
}

func newField(label string, dst func(*Snapshot) *float64) field {
	return field{
		label: label,
		re:    regexp.MustCompile(regexp.QuoteMeta(label) + `:\s+(\d+)`),
		dst:   dst,
	}
}

var fields = []field{
	newField("Java Heap", func(s *Snapshot) *float64 { return &s.JavaHeap }),
	newField("Native Heap", func(s *Snapshot) *float64 { return &s.NativeHeap }),
	newField("Code", func(s *Snapshot) *float64 { return &s.Code }),
	newField("Stack", func(s *Snapshot) *float64 { return &s.Stack }),
	newField("Graphics", func(s *Snapshot) *float64 { return &s.Graphics }),
	newField("Private Other", func(s *Snapshot) *float64 { return &s.PrivateOther }),
	newField("System", func(s *Snapshot) *float64 { return &s.System }),
	newField("TOTAL", func(s *Snapshot) *float64 { return &s.Total }),
}

// Parse reads the eight summary labels from raw. Every label is required;
// values are converted from kilobytes to megabytes.
//
//	        Java Heap:    59680
//	      Native Heap:   149108
//	             Code:    53184
//	            Stack:       92
//	         Graphics:   106300
//	    Private Other:    15928
//	           System:     8701
//
//	            TOTAL:   392993       TOTAL SWAP PSS:      128
func Parse(raw string) (*Snapshot, error) {
	s := &Snapshot{Raw: raw}
	for _, f := range fields {
		m := f.re.FindStringSubmatch(raw)
		if m == nil {
			return nil, &MissingFieldError{Label: f.label}
		}
		kb, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("meminfo field %q: %w", f.label, err)
		}
		*f.dst(s) = float64(kb) / 1024.0
	}
	return s, nil
}

// Category is one slice of the memory breakdown.
type Category struct {
	Name  string  `json:"name" yaml:"name" header:"CATEGORY"`
	MB    float64 `json:"mb" yaml:"mb" header:"MB"`
	Share float64 `json:"share" yaml:"share" header:"SHARE"`
}

// Breakdown returns the seven categories that make up the total, each with
// its share of their sum.
func (s *Snapshot) Breakdown() []Category {
	cats := []Category{
		{Name: "Java Heap", MB: s.JavaHeap},
		{Name: "Native Heap", MB: s.NativeHeap},
		{Name: "Code", MB: s.Code},
		{Name: "Stack", MB: s.Stack},
		{Name: "Graphics", MB: s.Graphics},
		{Name: "Private Other", MB: s.PrivateOther},
		{Name: "System", MB: s.System},
	}

	var sum float64
	for _, c := range cats {
		sum += c.MB
	}
	if sum > 0 {
		for i := range cats {
			cats[i].Share = cats[i].MB / sum
		}
	}
	return cats
}
