package stats

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carlosrm22/lazaro/internal/settings"
)

// HistoryDays is how many daily rows are retained.
const HistoryDays = 56

// Aggregator owns the usage counters. Mutations only touch memory; Flush
// writes a consistent copy through the Persister.
type Aggregator struct {
	mu          sync.Mutex
	flushMu     sync.Mutex
	store       Persister
	weekly      WeeklyStats
	days        map[int64]*DailyStats
	resetOffset time.Duration
	dirty       bool
	clock       func() time.Time
}

// NewAggregator loads the persisted counters, or starts a new cycle at now,
// and reconciles any day or week boundary crossed while the process was down.
// A nil store keeps everything in memory.
func NewAggregator(ctx context.Context, store Persister, now time.Time, resetOffset time.Duration) (*Aggregator, error) {
	agg := &Aggregator{
		store:       store,
		days:        make(map[int64]*DailyStats),
		resetOffset: resetOffset,
		clock:       time.Now,
	}

	found := false
	if store != nil {
		snap, ok, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load stats: %w", err)
		}
		if ok {
			found = true
			agg.weekly = snap.Weekly
			agg.resetOffset = snap.ResetOffset
			for i := range snap.Days {
				day := snap.Days[i]
				agg.days[day.DayBucket] = &day
			}
		}
	}

	if !found {
		bucket := DayBucket(now, resetOffset)
		agg.weekly = WeeklyStats{DayBucket: bucket, WeekEpoch: bucket}
		agg.dirty = true
	}

	// Catch up under the offset the counters were saved with, then adopt
	// the configured one the same way a live settings change does.
	agg.RolloverIfNeeded(now)
	agg.Rebase(now, resetOffset)
	return agg, nil
}

// SetClock replaces the clock used by lazy rollover checks.
func (agg *Aggregator) SetClock(clock func() time.Time) {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	agg.clock = clock
}

// RolloverIfNeeded moves to the day containing now. Crossing into a new
// 7-day cycle zeroes the weekly counters. A clock stepping backwards never
// rolls anything back.
func (agg *Aggregator) RolloverIfNeeded(now time.Time) (dayCrossed, weekCrossed bool) {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.rolloverLocked(now)
}

func (agg *Aggregator) rolloverLocked(now time.Time) (dayCrossed, weekCrossed bool) {
	bucket := DayBucket(now, agg.resetOffset)
	if bucket <= agg.weekly.DayBucket {
		return false, false
	}

	oldWeek := floorDiv(agg.weekly.DayBucket-agg.weekly.WeekEpoch, 7)
	newWeek := floorDiv(bucket-agg.weekly.WeekEpoch, 7)
	if newWeek != oldWeek {
		agg.weekly = WeeklyStats{WeekEpoch: agg.weekly.WeekEpoch}
		weekCrossed = true
	}
	agg.weekly.DayBucket = bucket
	agg.pruneLocked()
	agg.dirty = true
	return true, weekCrossed
}

// Rebase adopts a new reset time without treating the shift as a rollover.
func (agg *Aggregator) Rebase(now time.Time, resetOffset time.Duration) {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	if resetOffset == agg.resetOffset {
		return
	}
	agg.resetOffset = resetOffset
	prev := agg.weekly.DayBucket
	next := DayBucket(now, resetOffset)
	// Keep the current 7-day cycle when the shift crosses its edge.
	if floorDiv(next-agg.weekly.WeekEpoch, 7) != floorDiv(prev-agg.weekly.WeekEpoch, 7) {
		agg.weekly.WeekEpoch += next - prev
	}
	agg.weekly.DayBucket = next
	agg.dirty = true
}

// CurrentBucket is the day bucket the counters are attributed to.
func (agg *Aggregator) CurrentBucket() int64 {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.weekly.DayBucket
}

// RecordCompletion counts a finished break and the active time leading up to it.
func (agg *Aggregator) RecordCompletion(kind settings.BreakKind, activeSinceLastRollup time.Duration) {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	day := agg.todayLocked()
	switch kind {
	case settings.Micro:
		agg.weekly.MicroDone++
		day.MicroDone++
	case settings.Rest:
		agg.weekly.RestDone++
		day.RestDone++
	case settings.DailyLimit:
		agg.weekly.DailyLimitHits++
		day.DailyLimitHits++
	}
	agg.addActiveLocked(activeSinceLastRollup)
	agg.dirty = true
}

func (agg *Aggregator) RecordSkip(kind settings.BreakKind) {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	agg.weekly.Skipped++
	agg.todayLocked().Skipped++
	agg.dirty = true
}

func (agg *Aggregator) RecordDailyLimitHit() {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	agg.weekly.DailyLimitHits++
	agg.todayLocked().DailyLimitHits++
	agg.dirty = true
}

// RecordActivity adds active time that did not end in a completion.
func (agg *Aggregator) RecordActivity(active time.Duration) {
	if active <= 0 {
		return
	}
	agg.mu.Lock()
	defer agg.mu.Unlock()
	agg.addActiveLocked(active)
	agg.dirty = true
}

func (agg *Aggregator) addActiveLocked(active time.Duration) {
	if active <= 0 {
		return
	}
	secs := int64(active / time.Second)
	agg.weekly.TotalActiveSeconds += secs
	agg.todayLocked().ActiveSeconds += secs
}

// WeeklyStats returns the current counters, rolling over first.
func (agg *Aggregator) WeeklyStats() WeeklyStats {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	agg.rolloverLocked(agg.clock())
	return agg.weekly
}

// DailyHistory returns one row per day for the last n days, oldest first.
// Days without activity are zero rows.
func (agg *Aggregator) DailyHistory(n int) []DailyStats {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	agg.rolloverLocked(agg.clock())

	if n <= 0 {
		n = 7
	}
	if n > HistoryDays {
		n = HistoryDays
	}
	out := make([]DailyStats, 0, n)
	for bucket := agg.weekly.DayBucket - int64(n) + 1; bucket <= agg.weekly.DayBucket; bucket++ {
		if day, ok := agg.days[bucket]; ok {
			out = append(out, *day)
			continue
		}
		out = append(out, DailyStats{DayBucket: bucket, Day: DayLabel(bucket, agg.resetOffset)})
	}
	return out
}

// Flush persists the counters if anything changed since the last flush.
func (agg *Aggregator) Flush(ctx context.Context) error {
	if agg.store == nil {
		return nil
	}
	agg.flushMu.Lock()
	defer agg.flushMu.Unlock()

	agg.mu.Lock()
	if !agg.dirty {
		agg.mu.Unlock()
		return nil
	}
	snap := agg.snapshotLocked()
	agg.dirty = false
	agg.mu.Unlock()

	if err := agg.store.Save(ctx, snap); err != nil {
		agg.mu.Lock()
		agg.dirty = true
		agg.mu.Unlock()
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

func (agg *Aggregator) snapshotLocked() Snapshot {
	days := make([]DailyStats, 0, len(agg.days))
	for _, day := range agg.days {
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].DayBucket < days[j].DayBucket })
	return Snapshot{Weekly: agg.weekly, Days: days, ResetOffset: agg.resetOffset}
}

func (agg *Aggregator) todayLocked() *DailyStats {
	bucket := agg.weekly.DayBucket
	day, ok := agg.days[bucket]
	if !ok {
		day = &DailyStats{DayBucket: bucket, Day: DayLabel(bucket, agg.resetOffset)}
		agg.days[bucket] = day
	}
	return day
}

func (agg *Aggregator) pruneLocked() {
	cutoff := agg.weekly.DayBucket - HistoryDays
	for bucket := range agg.days {
		if bucket <= cutoff {
			delete(agg.days, bucket)
		}
	}
}
