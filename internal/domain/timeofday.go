package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeOfDay is a wall clock time without a date, stored with second precision.
type TimeOfDay struct {
	Hour, Minute, Second int
}

const timeOfDayLayout = "15:04:05"

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute, Second: second}
}

// TimeOfDayOf returns the wall clock part of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{timeOfDayLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
}

func (t TimeOfDay) seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.seconds() < o.seconds() }

func (t TimeOfDay) After(o TimeOfDay) bool { return t.seconds() > o.seconds() }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	case time.Time:
		*t = TimeOfDayOf(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}
