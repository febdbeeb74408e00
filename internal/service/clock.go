package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/aniladanir/mailing-campaign-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(time.Now)

// ZoneResolver resolves timezone names and caches the loaded locations.
type ZoneResolver struct {
	locations sync.Map
}

func NewZoneResolver() *ZoneResolver {
	return &ZoneResolver{}
}

func (z *ZoneResolver) Location(name string) (*time.Location, error) {
	if loc, ok := z.locations.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" {
		return nil, fmt.Errorf("%w %q", domain.ErrUnknownTimezone, name)
	}
	z.locations.Store(name, loc)
	return loc, nil
}

// LocalTime returns the wall clock time of day at now in the named zone.
func (z *ZoneResolver) LocalTime(now time.Time, name string) (domain.TimeOfDay, error) {
	loc, err := z.Location(name)
	if err != nil {
		return domain.TimeOfDay{}, err
	}
	return domain.TimeOfDayOf(now.In(loc)), nil
}
