package analytics

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

var ErrInvalidRange = errors.New("invalid date range")

// Kind names a preset range; custom uses explicit dates.
type Kind string

const (
	KindToday  Kind = "today"
	KindWeek   Kind = "week"
	KindMonth  Kind = "month"
	KindYear   Kind = "year"
	KindCustom Kind = "custom"
)

// Range is a closed interval of whole days: From at midnight, To at the last
// millisecond of its day.
type Range struct {
	Kind Kind      `json:"kind"`
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Millisecond)
}

// ParseRange resolves a preset against now, or parses from/to (YYYY-MM-DD) for
// custom ranges. An empty kind means the last month.
func ParseRange(kind, from, to string, now time.Time) (Range, error) {
	today := startOfDay(now)
	r := Range{Kind: Kind(kind), To: endOfDay(now)}
	switch r.Kind {
	case "":
		r.Kind = KindMonth
		r.From = today.AddDate(0, -1, 0)
	case KindToday:
		r.From = today
	case KindWeek:
		r.From = today.AddDate(0, 0, -7)
	case KindMonth:
		r.From = today.AddDate(0, -1, 0)
	case KindYear:
		r.From = today.AddDate(-1, 0, 0)
	case KindCustom:
		start, err := time.ParseInLocation(dateLayout, from, now.Location())
		if err != nil {
			return Range{}, fmt.Errorf("%w: from %q", ErrInvalidRange, from)
		}
		end, err := time.ParseInLocation(dateLayout, to, now.Location())
		if err != nil {
			return Range{}, fmt.Errorf("%w: to %q", ErrInvalidRange, to)
		}
		if end.Before(start) {
			return Range{}, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to, from)
		}
		r.From, r.To = start, endOfDay(end)
	default:
		return Range{}, fmt.Errorf("%w: unknown range %q", ErrInvalidRange, kind)
	}
	return r, nil
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Days is the number of calendar days covered.
func (r Range) Days() int {
	return int(math.Round(startOfDay(r.To).Sub(r.From).Hours()/24)) + 1
}

// Previous is the range of equal length that ends just before r starts.
func (r Range) Previous() Range {
	return Range{
		Kind: r.Kind,
		From: r.From.AddDate(0, 0, -r.Days()),
		To:   r.From.Add(-time.Millisecond),
	}
}
