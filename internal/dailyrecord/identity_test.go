package dailyrecord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveID_Format(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "registro_20240301_S1", DeriveID(d, "S1"))
	assert.Equal(t, "registro_20241109_stu_42", DeriveID(time.Date(2024, 11, 9, 0, 0, 0, 0, time.UTC), "stu_42"))
}

func TestDeriveID_IgnoresTimeOfDay(t *testing.T) {
	loc := time.UTC
	morning := CalendarDay(time.Date(2024, 3, 1, 7, 30, 0, 0, loc), loc)
	night := CalendarDay(time.Date(2024, 3, 1, 23, 59, 59, 0, loc), loc)
	assert.Equal(t, DeriveID(morning, "S1"), DeriveID(night, "S1"))
}

func TestCalendarDay_UsesLocation(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	// 2024-02-29 20:00 UTC は JST で 3/1
	d := CalendarDay(time.Date(2024, 2, 29, 20, 0, 0, 0, time.UTC), jst)
	assert.Equal(t, "registro_20240301_S1", DeriveID(d, "S1"))
}

func TestParseID_RoundTrip(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day, student, ok := ParseID(DeriveID(d, "S_1"), time.UTC)
	require.True(t, ok)
	assert.True(t, day.Equal(d))
	assert.Equal(t, "S_1", student)

	for _, bad := range []string{"", "temp_abc", "registro_2024_S1", "registro_20241301_S1", "registro_20240301_", "registro_20240301S1"} {
		_, _, ok := ParseID(bad, time.UTC)
		assert.False(t, ok, bad)
	}
}

func TestParseDay(t *testing.T) {
	now := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	jst := time.FixedZone("JST", 9*60*60)

	d, err := ParseDay("today", now, jst)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", d.Format(dateLayout))

	d, err = ParseDay("2024-02-29", now, jst)
	require.NoError(t, err)
	assert.Equal(t, jst, d.Location())

	_, err = ParseDay("03/01/2024", now, jst)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}
