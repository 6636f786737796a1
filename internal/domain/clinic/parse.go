package clinic

import (
	"strings"
	"time"
)

const (
	dateLayout  = "02/01/2006"
	clockLayout = "15:04"
)

// ParseStart combines a DD/MM/YYYY date and an HH:MM time into an instant
// in loc. A nil loc means time.Local.
func ParseStart(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, invalidInput("use date DD/MM/YYYY and time HH:MM")
	}
	t, err := time.ParseInLocation(clockLayout, strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, invalidInput("use date DD/MM/YYYY and time HH:MM")
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
