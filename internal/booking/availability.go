package booking

import (
	"sort"
	"time"

	"github.com/orsched/or-scheduling-backend/internal/resource"
)

// interval is a half-open [Start, End) time range.
type interval struct {
	Start time.Time
	End   time.Time
}

// intersectWindows folds the per-resource window lists into the set of ranges
// open for every resource at once. Any resource closed all day collapses the
// result to empty.
func intersectWindows(sets [][]resource.Window) []interval {
	if len(sets) == 0 {
		return nil
	}

	acc := toIntervals(sets[0])
	for _, windows := range sets[1:] {
		acc = intersectPair(acc, toIntervals(windows))
		if len(acc) == 0 {
			return nil
		}
	}
	return acc
}

func toIntervals(ws []resource.Window) []interval {
	out := make([]interval, 0, len(ws))
	for _, w := range ws {
		out = append(out, interval{Start: w.Start, End: w.End})
	}
	return out
}

// intersectPair merges two sorted interval lists with a two-pointer sweep.
func intersectPair(a, b []interval) []interval {
	var out []interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := maxTime(a[i].Start, b[j].Start)
		end := minTime(a[i].End, b[j].End)
		if start.Before(end) {
			out = append(out, interval{Start: start, End: end})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

// subtractBusy removes the union of busy intervals from the free ones.
// Busy intervals may arrive unsorted and overlapping.
func subtractBusy(free, busy []interval) []interval {
	if len(busy) == 0 {
		return free
	}

	merged := mergeIntervals(busy)

	var out []interval
	for _, f := range free {
		cursor := f.Start
		for _, b := range merged {
			if !b.Start.Before(f.End) {
				break
			}
			if !b.End.After(cursor) {
				continue
			}
			if b.Start.After(cursor) {
				out = append(out, interval{Start: cursor, End: minTime(b.Start, f.End)})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
		}
		if cursor.Before(f.End) {
			out = append(out, interval{Start: cursor, End: f.End})
		}
	}
	return out
}

func mergeIntervals(in []interval) []interval {
	sorted := make([]interval, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var out []interval
	for _, iv := range sorted {
		if n := len(out); n > 0 && !iv.Start.After(out[n-1].End) {
			if iv.End.After(out[n-1].End) {
				out[n-1].End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// candidateStarts discretizes the free intervals into start times on
// granularity boundaries where a booking of the given duration fits entirely
// inside one free interval. Candidates in the past relative to now are
// dropped. Output is ascending.
func candidateStarts(free []interval, duration, granularity time.Duration, now time.Time) []time.Time {
	var out []time.Time
	for _, f := range free {
		t := f.Start.Truncate(granularity)
		if t.Before(f.Start) {
			t = t.Add(granularity)
		}
		for !t.Add(duration).After(f.End) {
			if !t.Before(now) {
				out = append(out, t)
			}
			t = t.Add(granularity)
		}
	}
	return out
}

// fitsWithin reports whether [start, end) lies entirely inside one of the
// given open windows.
func fitsWithin(windows []resource.Window, start, end time.Time) bool {
	for _, w := range windows {
		if !start.Before(w.Start) && !end.After(w.End) {
			return true
		}
	}
	return false
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
