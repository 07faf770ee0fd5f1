package dailyrecord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyRecord(legacyID, student string, day time.Time, mod time.Time) DailyRecord {
	return DailyRecord{ID: legacyID, StudentID: student, ClassID: "C1", Date: day, LastModifiedAt: mod}
}

func TestMigrateLegacy_AdoptsWhenNoCanonical(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	in := []DailyRecord{legacyRecord("temp_1", "S1", d, d)}

	out := MigrateLegacy(in)
	require.Len(t, out, 1)
	assert.Equal(t, DeriveID(d, "S1"), out[0].ID)
	assert.Equal(t, "temp_1", in[0].ID)

	// 2回目は何も変わらない
	assert.Equal(t, out, MigrateLegacy(out))
}

func TestMigrateLegacy_StaleWhenCanonicalExists(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	canonical := DailyRecord{ID: DeriveID(d, "S1"), StudentID: "S1", Date: d, LastModifiedAt: d}
	stale := legacyRecord("temp_old", "S1", d, d.Add(time.Hour))
	stale.GeneralNotes = "stale"

	out := MigrateLegacy([]DailyRecord{stale, canonical})
	require.Len(t, out, 1)
	assert.Equal(t, canonical.ID, out[0].ID)
	assert.Empty(t, out[0].GeneralNotes)
}

func TestMigrateLegacy_NewestLegacyWinsAndOrderKept(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	older := legacyRecord("temp_a", "S1", d2, d2.Add(time.Hour))
	newer := legacyRecord("temp_b", "S1", d2, d2.Add(2*time.Hour))
	newer.GeneralNotes = "newer"
	other := DailyRecord{ID: DeriveID(d1, "S1"), StudentID: "S1", Date: d1}

	out := MigrateLegacy([]DailyRecord{older, newer, other})
	require.Len(t, out, 2)
	assert.Equal(t, DeriveID(d2, "S1"), out[0].ID)
	assert.Equal(t, "newer", out[0].GeneralNotes)
	assert.Equal(t, other.ID, out[1].ID)
}

func TestIsLegacyID(t *testing.T) {
	assert.True(t, IsLegacyID("temp_9f2c"))
	assert.False(t, IsLegacyID("registro_20240301_S1"))
}
