package entity

import (
	"fmt"
	"time"
)

// LogRecord is a single audit log entry as returned by a provider API.
// Records keep the provider's own schema; the collector never normalizes
// them into a common shape.
type LogRecord map[string]interface{}

// TimeWindow is the half-open collection interval [Start, End].
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// String renders the window in the form used by summary tables and reports.
func (w TimeWindow) String() string {
	return fmt.Sprintf("%s to %s",
		w.Start.UTC().Format("2006-01-02 15:04"),
		w.End.UTC().Format("2006-01-02 15:04"))
}
