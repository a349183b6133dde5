package clockwork

import (
	"fmt"
	"sync"
	"time"

	"github.com/NOAA-OWP/evalcore/pkg/group"
)

func intCompare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func seqRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return out
}

var (
	groupsOnce  sync.Once
	monthGroup  *group.Group[int]
	hourGroup   *group.Group[int]
	minuteGroup *group.Group[int]
	secondGroup *group.Group[int]
	dayGroups   map[int]*group.Group[int]
)

// initGroups lazily builds the process-wide, read-only groups for months,
// hours, minutes, seconds and the four possible day-of-month lengths
// (28/29/30/31), handed out as shared immutable references to every
// ClockworkDate.
func initGroups() {
	groupsOnce.Do(func() {
		monthGroup, _ = group.New("month", seqRange(1, 12), intCompare)
		hourGroup, _ = group.New("hour", seqRange(0, 23), intCompare)
		minuteGroup, _ = group.New("minute", seqRange(0, 59), intCompare)
		secondGroup, _ = group.New("second", seqRange(0, 59), intCompare)
		dayGroups = make(map[int]*group.Group[int], 4)
		for _, n := range []int{28, 29, 30, 31} {
			dayGroups[n], _ = group.New(fmt.Sprintf("day-of-month-%d", n), seqRange(1, n), intCompare)
		}
	})
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 30
	}
}

// ClockworkDate is a calendar date/time built from chained finite-group
// members: a month member rolls over into the year, a day member rolls
// over into the month (re-parenting to the new month's day group), and
// hour/minute/second members roll over into their neighbors in turn.
type ClockworkDate struct {
	year   int
	month  *group.Member[int]
	day    *group.Member[int]
	hour   *group.Member[int]
	minute *group.Member[int]
	second *group.Member[int]
}

// New constructs a ClockworkDate. Any field may overflow its natural
// range (e.g. hour=36); the overflow is decomposed and applied through
// the same chained increments used by Add, so it carries into day, month
// and year exactly as addition would.
func New(year, month, day, hour, minute, second int) *ClockworkDate {
	initGroups()
	cd := &ClockworkDate{year: year}
	cd.month = monthGroup.ByIndex(0)
	cd.hour = hourGroup.ByIndex(0)
	cd.minute = minuteGroup.ByIndex(0)
	cd.second = secondGroup.ByIndex(0)
	cd.day = dayGroups[31].ByIndex(0)
	cd.wireHandlers()
	cd.reparentDay()

	cd.second.Increment(second)
	cd.minute.Increment(minute)
	cd.hour.Increment(hour)
	cd.addDays(day - 1)
	cd.addMonths(month - 1)
	return cd
}

func (cd *ClockworkDate) wireHandlers() {
	cd.second.OnRollover = func(_ *group.Member[int], wraps int) { cd.minute.Increment(wraps) }
	cd.second.OnRollback = func(_ *group.Member[int], wraps int) { cd.minute.Decrement(wraps) }
	cd.minute.OnRollover = func(_ *group.Member[int], wraps int) { cd.hour.Increment(wraps) }
	cd.minute.OnRollback = func(_ *group.Member[int], wraps int) { cd.hour.Decrement(wraps) }
	cd.hour.OnRollover = func(_ *group.Member[int], wraps int) { cd.addDays(wraps) }
	cd.hour.OnRollback = func(_ *group.Member[int], wraps int) { cd.addDays(-wraps) }
}

// reparentDay re-parents the day member into the day group matching the
// current (year, month), preserving the original day-of-month when
// possible: if the prior day exceeds the new month's length it is
// clamped to the new month's last day.
func (cd *ClockworkDate) reparentDay() {
	length := daysInMonth(cd.year, cd.month.Value())
	curDay := cd.day.Value()
	newIndex := curDay - 1
	if curDay > length {
		newIndex = length - 1
	}
	newGroup := dayGroups[length]
	cd.day = newGroup.ByIndex(newIndex)
}

// addMonths advances (or retreats, for negative n) the month member,
// carrying whole-year wraps into the year field and re-parenting the day
// member to the destination month's day count.
func (cd *ClockworkDate) addMonths(n int) {
	if n == 0 {
		return
	}
	if n > 0 {
		wraps := cd.month.Increment(n)
		cd.year += wraps
	} else {
		wraps := cd.month.Decrement(-n)
		cd.year -= wraps
	}
	cd.reparentDay()
}

// addDays advances (or retreats) the day member one month-boundary at a
// time, so each crossing re-parents into the correct day group before
// continuing.
func (cd *ClockworkDate) addDays(n int) {
	if n > 0 {
		for n > 0 {
			length := cd.day.Group().Len()
			dayVal := cd.day.Value()
			remaining := length - dayVal
			if remaining == 0 {
				cd.addMonths(1)
				cd.day.SetIndex(0)
				n--
				continue
			}
			step := remaining
			if step > n {
				step = n
			}
			cd.day.Increment(step)
			n -= step
		}
	} else if n < 0 {
		n = -n
		for n > 0 {
			dayVal := cd.day.Value()
			if dayVal == 1 {
				cd.addMonths(-1)
				cd.day.SetIndex(cd.day.Group().Len() - 1)
				n--
				continue
			}
			step := dayVal - 1
			if step > n {
				step = n
			}
			cd.day.Decrement(step)
			n -= step
		}
	}
}

func (cd *ClockworkDate) clone() *ClockworkDate {
	out := &ClockworkDate{year: cd.year}
	out.month = monthGroup.ByIndex(cd.month.Index())
	out.hour = hourGroup.ByIndex(cd.hour.Index())
	out.minute = minuteGroup.ByIndex(cd.minute.Index())
	out.second = secondGroup.ByIndex(cd.second.Index())
	out.day = cd.day.Group().ByIndex(cd.day.Index())
	out.wireHandlers()
	return out
}

func (cd *ClockworkDate) addComponents(years, months, days, hours, minutes int, seconds float64) {
	cd.second.Increment(int(seconds))
	cd.minute.Increment(minutes)
	cd.hour.Increment(hours)
	cd.addDays(days)
	cd.addMonths(months)
	cd.year += years
	cd.reparentDay()
}

// Add returns a new ClockworkDate with d applied; the receiver is
// unchanged.
func (cd *ClockworkDate) Add(d RelativeDuration) *ClockworkDate {
	out := cd.clone()
	out.addComponents(d.Years, d.Months, d.Days, d.Hours, d.Minutes, d.Seconds)
	return out
}

// AddInPlace applies d to the receiver directly.
func (cd *ClockworkDate) AddInPlace(d RelativeDuration) {
	cd.addComponents(d.Years, d.Months, d.Days, d.Hours, d.Minutes, d.Seconds)
}

// Sub returns the componentwise difference between cd and other, with no
// borrowing across units.
func (cd *ClockworkDate) Sub(other *ClockworkDate) RelativeDuration {
	return RelativeDuration{
		Years:   cd.year - other.year,
		Months:  cd.month.Value() - other.month.Value(),
		Days:    cd.day.Value() - other.day.Value(),
		Hours:   cd.hour.Value() - other.hour.Value(),
		Minutes: cd.minute.Value() - other.minute.Value(),
		Seconds: float64(cd.second.Value() - other.second.Value()),
	}
}

func (cd *ClockworkDate) Year() int   { return cd.year }
func (cd *ClockworkDate) Month() int  { return cd.month.Value() }
func (cd *ClockworkDate) Day() int    { return cd.day.Value() }
func (cd *ClockworkDate) Hour() int   { return cd.hour.Value() }
func (cd *ClockworkDate) Minute() int { return cd.minute.Value() }
func (cd *ClockworkDate) Second() int { return cd.second.Value() }

// Compare orders two dates lexicographically over
// (year, month, day, hour, minute, second).
func (cd *ClockworkDate) Compare(other *ClockworkDate) int {
	fields := [][2]int{
		{cd.year, other.year},
		{cd.Month(), other.Month()},
		{cd.Day(), other.Day()},
		{cd.Hour(), other.Hour()},
		{cd.Minute(), other.Minute()},
		{cd.Second(), other.Second()},
	}
	for _, f := range fields {
		if c := intCompare(f[0], f[1]); c != 0 {
			return c
		}
	}
	return 0
}

func (cd *ClockworkDate) Equal(other *ClockworkDate) bool { return cd.Compare(other) == 0 }

// ToTime renders the date as a UTC time.Time for formatting/interop.
func (cd *ClockworkDate) ToTime() time.Time {
	return time.Date(cd.year, time.Month(cd.Month()), cd.Day(), cd.Hour(), cd.Minute(), cd.Second(), 0, time.UTC)
}

// String renders the date as "%Y-%m-%dT%H:%M"; ClockworkDate values are
// treated as UTC, so no offset is emitted.
func (cd *ClockworkDate) String() string {
	return cd.ToTime().Format("2006-01-02T15:04")
}

// FromTime builds a ClockworkDate from a standard library time.Time,
// normalized to UTC.
func FromTime(t time.Time) *ClockworkDate {
	u := t.UTC()
	return New(u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second())
}
