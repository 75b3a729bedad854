// Package calendar generates the checkpoint schedule for a backtest run.
// Resolution is a pure function of the inputs: no clock, no I/O.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPeriod is returned when the start date is not strictly before the
// end date.
var ErrInvalidPeriod = errors.New("start date must be before end date")

// ErrInvalidFrequency is returned for an unrecognized rebalance frequency.
var ErrInvalidFrequency = errors.New("invalid rebalance frequency")

// Frequency is the rebalancing cadence.
type Frequency int

const (
	Monthly Frequency = iota
	Quarterly
	Annual
)

// months returns the rebalance interval in months.
func (f Frequency) months() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case Annual:
		return 12
	default:
		return 0
	}
}

func (f Frequency) String() string {
	switch f {
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Annual:
		return "annual"
	default:
		return fmt.Sprintf("frequency(%d)", int(f))
	}
}

// ParseFrequency parses a rebalance frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "month":
		return Monthly, nil
	case "quarterly", "quarter":
		return Quarterly, nil
	case "annual", "yearly", "year":
		return Annual, nil
	default:
		return Monthly, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
}

// Checkpoint is a calendar date at which the simulation acts. A checkpoint
// with neither flag set is a pure valuation point (the terminal snapshot).
type Checkpoint struct {
	Date       time.Time `json:"date"`
	Contribute bool      `json:"contribute"`
	Rebalance  bool      `json:"rebalance"`
}

// ResolveCheckpoints produces the ordered, immutable checkpoint sequence for
// a simulation run.
//
// Contribution checkpoints fall on every month boundary from start to end
// inclusive, anchored to the start date's day-of-month; when that day does
// not exist in a month (e.g. the 31st in April) the last day of the month is
// used instead. Rebalance checkpoints fall every 1/3/12 months from the
// start depending on frequency; the first rebalance comes one full interval
// after the start, since there is nothing to rebalance before the first
// purchase. Coincident checkpoints merge, with both flags set.
//
// A terminal valuation checkpoint is appended at the end date when the end
// date is not already a checkpoint, so the final snapshot always lands on
// the requested end date.
func ResolveCheckpoints(start, end time.Time, freq Frequency) ([]Checkpoint, error) {
	start = midnightUTC(start)
	end = midnightUTC(end)

	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start %s, end %s",
			ErrInvalidPeriod, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	step := freq.months()
	if step == 0 {
		return nil, fmt.Errorf("unknown rebalance frequency %v", freq)
	}

	anchorDay := start.Day()
	var checkpoints []Checkpoint

	for i := 0; ; i++ {
		date := monthOffset(start, anchorDay, i)
		if date.After(end) {
			break
		}

		checkpoints = append(checkpoints, Checkpoint{
			Date:       date,
			Contribute: true,
			Rebalance:  i > 0 && i%step == 0,
		})
	}

	// Terminal valuation checkpoint on the end date.
	if n := len(checkpoints); n == 0 || !checkpoints[n-1].Date.Equal(end) {
		checkpoints = append(checkpoints, Checkpoint{Date: end})
	}

	return checkpoints, nil
}

// monthOffset returns the anchored day-of-month i calendar months after
// start, clamped to the last valid day of the target month.
func monthOffset(start time.Time, anchorDay, i int) time.Time {
	y, m, _ := start.Date()

	// First of the target month, then clamp the anchor day.
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
	day := anchorDay
	if last := lastDayOfMonth(first); day > last {
		day = last
	}

	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// lastDayOfMonth returns the number of days in t's month.
func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
