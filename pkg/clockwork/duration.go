// Package clockwork implements ISO-8601 relative durations and a calendar
// date type (ClockworkDate) that applies those durations via chained,
// rollover-aware modular arithmetic over pkg/group groups.
//
// The name echoes, but must not be confused with, the jonboulle/clockwork
// fake-clock dependency that pkg/expression uses as its injectable "now"
// source for the NOW/NOW UTC builtin constants; this package does not
// import it.
package clockwork

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	extduration "github.com/sosodev/duration"
)

// RelativeDuration is a canonicalized ISO-8601 duration: years, months and
// days independent of one another, hours/minutes/seconds wrapping at their
// natural bases. Months never propagate into days because a month's
// length in days is not fixed.
type RelativeDuration struct {
	Years   int
	Months  int
	Days    int
	Hours   int
	Minutes int
	Seconds float64
}

var durationPattern = regexp.MustCompile(
	`^P` +
		`(?:(\d+(?:\.\d+)?)Y)?` +
		`(?:(\d+(?:\.\d+)?)M)?` +
		`(?:(\d+(?:\.\d+)?)D)?` +
		`(?:T` +
		`(?:(\d+(?:\.\d+)?)H)?` +
		`(?:(\d+(?:\.\d+)?)M)?` +
		`(?:(\d+(?:\.\d+)?)S)?` +
		`)?$`,
)

// ParseRelativeDuration parses an ISO-8601 duration literal
// "P[nY][nM][nD][T[nH][nM][nS]]" into a canonicalized RelativeDuration.
func ParseRelativeDuration(literal string) (RelativeDuration, error) {
	m := durationPattern.FindStringSubmatch(literal)
	if m == nil {
		return RelativeDuration{}, fmt.Errorf("clockwork: %q is not a valid ISO-8601 duration", literal)
	}
	fields := make([]float64, 6)
	any := false
	for i, raw := range m[1:] {
		if raw == "" {
			continue
		}
		any = true
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return RelativeDuration{}, fmt.Errorf("clockwork: invalid numeric field %q in %q", raw, literal)
		}
		fields[i] = v
	}
	if !any {
		return RelativeDuration{}, fmt.Errorf("clockwork: %q has no duration fields", literal)
	}

	d := normalize(fields[0], fields[1], fields[2], fields[3], fields[4], fields[5])

	// Cross-check the total-seconds reference value against a trusted,
	// independently maintained ISO-8601 parser rather than only trusting
	// the hand-rolled cascade above; month/year components are excluded
	// since they have no fixed length in seconds.
	if d.Months == 0 && d.Years == 0 {
		if ref, err := extduration.Parse(literal); err == nil {
			got := float64(d.Days)*86400 + float64(d.Hours)*3600 + float64(d.Minutes)*60 + d.Seconds
			want := ref.ToTimeDuration().Seconds()
			if math.Abs(got-want) > 1e-6 {
				return RelativeDuration{}, fmt.Errorf("clockwork: internal duration cascade disagreed with reference parse for %q (%.6f != %.6f)", literal, got, want)
			}
		}
	}

	return d, nil
}

func floorDivMod(a, b int64) (q, r int64) {
	q = a / b
	r = a % b
	if r < 0 {
		r += b
		q--
	}
	return
}

// normalize canonicalizes raw (possibly fractional, possibly out-of-range)
// field values: fractional years/days/hours/minutes cascade into the next
// smaller unit, then integer overflow carries upward (seconds->minutes->
// hours->days, and separately months->years). Days never carry into
// months.
func normalize(years, months, days, hours, minutes, seconds float64) RelativeDuration {
	yWhole, yFrac := math.Modf(years)
	months += yFrac * 12

	// Months has no defined fractional cascade target (a month's length
	// in days is not fixed), so any fractional remainder is truncated.
	mWhole, _ := math.Modf(months)

	dWhole, dFrac := math.Modf(days)
	hours += dFrac * 24

	hWhole, hFrac := math.Modf(hours)
	minutes += hFrac * 60

	minWhole, minFrac := math.Modf(minutes)
	seconds += minFrac * 60

	secWhole, secFrac := math.Modf(seconds)

	extraMin, remSec64 := floorDivMod(int64(secWhole), 60)
	remSec := float64(remSec64) + secFrac

	extraHour, remMin := floorDivMod(int64(minWhole)+extraMin, 60)
	extraDay, remHour := floorDivMod(int64(hWhole)+extraHour, 24)
	totalDays := int64(dWhole) + extraDay

	extraYear, remMonth := floorDivMod(int64(mWhole), 12)
	totalYears := int64(yWhole) + extraYear

	return RelativeDuration{
		Years:   int(totalYears),
		Months:  int(remMonth),
		Days:    int(totalDays),
		Hours:   int(remHour),
		Minutes: int(remMin),
		Seconds: remSec,
	}
}

// NewRelativeDuration constructs a canonicalized RelativeDuration from raw
// field values, applying the same normalization ParseRelativeDuration
// does.
func NewRelativeDuration(years, months, days, hours, minutes int, seconds float64) RelativeDuration {
	return normalize(float64(years), float64(months), float64(days), float64(hours), float64(minutes), seconds)
}

// totalMonths and totalSeconds form the duration ordering key:
// (total_months, total_seconds).
func (d RelativeDuration) totalMonths() int64 {
	return int64(d.Years)*12 + int64(d.Months)
}

func (d RelativeDuration) totalSeconds() float64 {
	return float64(d.Days)*86400 + float64(d.Hours)*3600 + float64(d.Minutes)*60 + d.Seconds
}

// Compare returns -1, 0 or 1 as d is less than, equal to, or greater than
// other, using the (total_months, total_seconds) ordering key.
func (d RelativeDuration) Compare(other RelativeDuration) int {
	dm, om := d.totalMonths(), other.totalMonths()
	if dm != om {
		if dm < om {
			return -1
		}
		return 1
	}
	ds, os := d.totalSeconds(), other.totalSeconds()
	switch {
	case ds < os:
		return -1
	case ds > os:
		return 1
	default:
		return 0
	}
}

func (d RelativeDuration) Equal(other RelativeDuration) bool { return d.Compare(other) == 0 }

// Scale multiplies every field by factor and renormalizes, restoring the
// months-in-[0,12) invariant if the multiplication pushed it out of range.
func (d RelativeDuration) Scale(factor float64) RelativeDuration {
	return normalize(
		float64(d.Years)*factor,
		float64(d.Months)*factor,
		float64(d.Days)*factor,
		float64(d.Hours)*factor,
		float64(d.Minutes)*factor,
		d.Seconds*factor,
	)
}

// Divide divides every field by divisor and renormalizes. Division by
// zero is rejected.
func (d RelativeDuration) Divide(divisor float64) (RelativeDuration, error) {
	if divisor == 0 {
		return RelativeDuration{}, fmt.Errorf("clockwork: cannot divide a duration by zero")
	}
	return d.Scale(1 / divisor), nil
}

// Negate mirrors every field; since d is already canonicalized, negating
// each field in place is its own inverse and needs no renormalization.
func (d RelativeDuration) Negate() RelativeDuration {
	return RelativeDuration{
		Years:   -d.Years,
		Months:  -d.Months,
		Days:    -d.Days,
		Hours:   -d.Hours,
		Minutes: -d.Minutes,
		Seconds: -d.Seconds,
	}
}

func (d RelativeDuration) IsZero() bool {
	return d.Years == 0 && d.Months == 0 && d.Days == 0 && d.Hours == 0 && d.Minutes == 0 && d.Seconds == 0
}

func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return s
}

// String renders the canonical ISO-8601 form, omitting zero-valued fields
// and using "PT0S" for a zero duration.
func (d RelativeDuration) String() string {
	if d.IsZero() {
		return "PT0S"
	}
	var b strings.Builder
	b.WriteByte('P')
	if d.Years != 0 {
		fmt.Fprintf(&b, "%dY", d.Years)
	}
	if d.Months != 0 {
		fmt.Fprintf(&b, "%dM", d.Months)
	}
	if d.Days != 0 {
		fmt.Fprintf(&b, "%dD", d.Days)
	}
	if d.Hours != 0 || d.Minutes != 0 || d.Seconds != 0 {
		b.WriteByte('T')
		if d.Hours != 0 {
			fmt.Fprintf(&b, "%dH", d.Hours)
		}
		if d.Minutes != 0 {
			fmt.Fprintf(&b, "%dM", d.Minutes)
		}
		if d.Seconds != 0 {
			fmt.Fprintf(&b, "%sS", formatNumber(d.Seconds))
		}
	}
	return b.String()
}
