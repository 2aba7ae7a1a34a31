package feed

import (
	"regexp"
	"strconv"
	"time"
)

// The feed encodes timestamps in the legacy WCF form "/Date(1700000000000+0100)/"
// (epoch milliseconds, optional zone offset the epoch already accounts for).
var msDatePattern = regexp.MustCompile(`/Date\((\d+)([+-]\d{4})?\)/`)

// ParseMSDate extracts a UTC timestamp from a vendor date string.
// Returns ok == false for empty or unrecognized input.
func ParseMSDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	m := msDatePattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
