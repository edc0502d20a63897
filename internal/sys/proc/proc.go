// Package proc parses process accounting text captured from a device:
// `ps -ef` listings, /proc/<pid>/task directory listings and
// /proc/<pid>/stat records.
package proc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Field positions in a whitespace-split stat record (0-indexed).
const (
	statFieldName  = 1
	statFieldUTime = 13
	statFieldSTime = 14
)

// ErrMalformedStat is returned when a stat record is too short or its tick
// fields are not numbers.
var ErrMalformedStat = errors.New("malformed stat record")

// Stat holds the fields of a /proc stat record used for CPU accounting.
type Stat struct {
	// Name is field 1 as it appears in the record, parentheses included.
	Name string
	// UTime is the cumulative user-mode ticks.
	UTime uint64
	// STime is the cumulative kernel-mode ticks.
	STime uint64
}

// ParseStat parses a single /proc/<pid>/stat or /proc/<pid>/task/<tid>/stat
// line.
func ParseStat(record string) (Stat, error) {
	fields := strings.Fields(strings.TrimSpace(record))
	if len(fields) <= statFieldSTime {
		return Stat{}, fmt.Errorf("%w: %d fields", ErrMalformedStat, len(fields))
	}

	utime, err := strconv.ParseUint(fields[statFieldUTime], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("%w: utime %q", ErrMalformedStat, fields[statFieldUTime])
	}

	stime, err := strconv.ParseUint(fields[statFieldSTime], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("%w: stime %q", ErrMalformedStat, fields[statFieldSTime])
	}

	return Stat{
		Name:  fields[statFieldName],
		UTime: utime,
		STime: stime,
	}, nil
}

// FindPID scans a `ps -ef` listing for a process whose command (the last
// column) equals name exactly and returns its PID column.
// When several lines match, the last one wins.
func FindPID(listing, name string) (string, bool) {
	var pid string
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[len(fields)-1] == name {
			pid = fields[1]
		}
	}
	return pid, pid != ""
}

// ParseTaskIDs extracts thread ids from a listing of /proc/<pid>/task.
// Entries that are not numeric are skipped.
func ParseTaskIDs(listing string) []string {
	var tids []string
	for _, entry := range strings.Fields(listing) {
		if _, err := strconv.Atoi(entry); err != nil {
			continue
		}
		tids = append(tids, entry)
	}
	return tids
}
