package timezone

import (
	"fmt"
	"time"
)

// Location is the zone that timestamps in default output names are taken in.
var Location = time.Local

// SetLocation switches Location to the named IANA zone, an empty name keeps
// the current one.
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", name, err)
	}
	Location = loc
	return nil
}

func Now() time.Time {
	return time.Now().In(Location)
}

const stampLayout = "20060102-150405"

// Stamp formats t the way default output names are prefixed.
func Stamp(t time.Time) string {
	return t.In(Location).Format(stampLayout)
}

// StampedName is "<stamp>_<name>" for the current time.
func StampedName(name string) string {
	return Stamp(Now()) + "_" + name
}
