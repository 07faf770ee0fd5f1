package classroom

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carebook-backend/internal/dailyrecord"
)

var _ Repository = (*MemoryStore)(nil)

func TestRosterAndClasses(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), time.UTC)

	_, err := svc.SaveClass(ctx, "C1", "ひよこ組", nil)
	require.NoError(t, err)
	inactive := false
	_, err = svc.SaveClass(ctx, "C0", "旧クラス", &inactive)
	require.NoError(t, err)

	require.NoError(t, svc.Enroll(ctx, "C1", []string{"S2", "S1", "S2"}))
	ids, err := svc.StudentsInClass(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, ids)

	active, err := svc.ActiveClasses(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "C1", active[0].ClassID)

	all, err := svc.ListClasses(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Unenroll(ctx, "C1", "S1"))
	err = svc.Unenroll(ctx, "C1", "S1")
	assert.Equal(t, dailyrecord.CodeNotFound, dailyrecord.CodeOf(err))
}

func TestEnroll_UnknownClass(t *testing.T) {
	svc := NewService(NewMemoryStore(), time.UTC)

	err := svc.Enroll(context.Background(), "nope", []string{"S1"})
	assert.Equal(t, dailyrecord.CodeNotFound, dailyrecord.CodeOf(err))
}

func TestIsHoliday_UsesCalendarDay(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), loc)

	_, err := svc.AddHoliday(ctx, "2024-05-03", "憲法記念日")
	require.NoError(t, err)

	// 2024-05-02 20:00 UTC は JST では 5/3
	ok, err := svc.IsHoliday(ctx, time.Date(2024, 5, 2, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsHoliday(ctx, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.AddHoliday(ctx, "05/03", "")
	assert.Equal(t, dailyrecord.CodeInvalidArgument, dailyrecord.CodeOf(err))
}
