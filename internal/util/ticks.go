// Package util holds small conversion helpers shared by the CLI.
package util

import (
	"fmt"
	"strconv"
	"time"
)

// Kusto datetime values are .NET ticks under the hood: 100-nanosecond
// intervals since 0001-01-01 00:00:00 UTC.
const (
	nanosecondsPerTick = 100

	// Ticks between the .NET epoch (0001-01-01) and the Unix epoch
	// (1970-01-01), i.e. 719162 days.
	epochDifferenceTicks = 621355968000000000
)

// TimeToTicks converts a time.Time to .NET ticks.
func TimeToTicks(t time.Time) int64 {
	return t.UnixNano()/nanosecondsPerTick + epochDifferenceTicks
}

// TicksToTime converts .NET ticks to a UTC time.Time.
func TicksToTime(ticks int64) time.Time {
	return time.Unix(0, (ticks-epochDifferenceTicks)*nanosecondsPerTick).UTC()
}

// ParseTicks parses a decimal ticks string.
func ParseTicks(s string) (int64, error) {
	ticks, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ticks value %q: %w", s, err)
	}
	return ticks, nil
}
