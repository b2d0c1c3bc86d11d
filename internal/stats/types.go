package stats

import (
	"context"
	"time"
)

// WeeklyStats are the counters of the current 7-day cycle.
type WeeklyStats struct {
	TotalActiveSeconds int64  `json:"total_active_seconds"`
	MicroDone          uint32 `json:"micro_done"`
	RestDone           uint32 `json:"rest_done"`
	DailyLimitHits     uint32 `json:"daily_limit_hits"`
	Skipped            uint32 `json:"skipped"`

	DayBucket int64 `json:"day_bucket"`
	WeekEpoch int64 `json:"week_epoch"`
}

// DailyStats are the counters of one day, where a day starts at the reset time.
type DailyStats struct {
	DayBucket      int64  `json:"day_bucket"`
	Day            string `json:"day"`
	ActiveSeconds  int64  `json:"active_seconds"`
	MicroDone      uint32 `json:"micro_done"`
	RestDone       uint32 `json:"rest_done"`
	DailyLimitHits uint32 `json:"daily_limit_hits"`
	Skipped        uint32 `json:"skipped"`
}

// Snapshot is everything the aggregator persists.
type Snapshot struct {
	Weekly      WeeklyStats
	Days        []DailyStats
	ResetOffset time.Duration
}

// Persister stores snapshots durably. Save must be all-or-nothing.
type Persister interface {
	Load(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, snap Snapshot) error
}

const secondsPerDay = 86400

// DayBucket numbers the day containing now, where each day begins at
// resetOffset past local midnight in now's location.
func DayBucket(now time.Time, resetOffset time.Duration) int64 {
	_, zoneOffset := now.Zone()
	local := now.Unix() + int64(zoneOffset) - int64(resetOffset/time.Second)
	return floorDiv(local, secondsPerDay)
}

// DayLabel is the calendar date a bucket starts on.
func DayLabel(bucket int64, resetOffset time.Duration) string {
	start := bucket*secondsPerDay + int64(resetOffset/time.Second)
	return time.Unix(start, 0).UTC().Format("2006-01-02")
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
