package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate marks a date string that is not a YYYY-MM-DD key. Callers
// translate it to a validation failure at their boundary.
var ErrInvalidDate = errors.New("invalid date")

// DateKeyLayout is the canonical calendar-date representation used at every
// boundary of this package. Wall-clock times are kept separate from dates and
// compared at minute precision.
const DateKeyLayout = "2006-01-02"

// Clock is a wall-clock time of day with no date attached.
type Clock struct {
	Hour   int
	Minute int
}

// AtOrBefore reports whether c is at or earlier than other.
func (c Clock) AtOrBefore(other Clock) bool {
	if c.Hour != other.Hour {
		return c.Hour < other.Hour
	}
	return c.Minute <= other.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses "HH:MM" with an optional seconds segment ("HH:MM:SS") and
// optional fractional seconds ("HH:MM:SS.sss"). Seconds are ignored; slot
// policy is minute-grained.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("invalid time %q: want HH:MM[:SS]", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return Clock{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return Clock{}, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if len(parts) == 3 {
		sec := parts[2]
		if i := strings.IndexByte(sec, '.'); i >= 0 {
			sec = sec[:i]
		}
		if _, err := strconv.Atoi(sec); err != nil {
			return Clock{}, fmt.Errorf("invalid seconds in %q: %w", s, err)
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("time %q out of range", s)
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

// ClockOf extracts the wall-clock portion of t.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// DateKey normalizes t to its calendar-date key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses a YYYY-MM-DD key.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: want YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t, nil
}
