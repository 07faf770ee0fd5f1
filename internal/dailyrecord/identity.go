package dailyrecord

import (
	"strings"
	"time"
)

const (
	IDPrefix     = "registro_"
	idDateLayout = "20060102"

	// 旧クライアントが採番前に付けていた仮ID
	LegacyIDPrefix = "temp_"
)

// DeriveID is the only place a record id is built. Lookups and deletes
// recompute it rather than carrying ids around.
func DeriveID(date time.Time, studentID string) string {
	return IDPrefix + date.Format(idDateLayout) + "_" + studentID
}

// ParseID splits a canonical id back into its calendar day (in loc) and
// student id.
func ParseID(id string, loc *time.Location) (time.Time, string, bool) {
	if !strings.HasPrefix(id, IDPrefix) {
		return time.Time{}, "", false
	}
	rest := strings.TrimPrefix(id, IDPrefix)
	if len(rest) < len(idDateLayout)+2 || rest[len(idDateLayout)] != '_' {
		return time.Time{}, "", false
	}
	day, err := time.ParseInLocation(idDateLayout, rest[:len(idDateLayout)], loc)
	if err != nil {
		return time.Time{}, "", false
	}
	return day, rest[len(idDateLayout)+1:], true
}

// CalendarDay drops the time of day, keeping the date as seen in loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
