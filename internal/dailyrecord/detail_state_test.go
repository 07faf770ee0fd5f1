package dailyrecord

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openedState() DetailState {
	rec := newRecord(testDay, "S1", "C1", "staff-a", testNow)
	return ReduceDetail(DetailState{}, RecordOpened{Record: rec})
}

func TestReduceDetail_EditsBeforeOpenAreIgnored(t *testing.T) {
	var s DetailState
	next := ReduceDetail(s, MealChanged{Slot: SlotSnack, Value: "good"})
	assert.False(t, next.Loaded())
	assert.False(t, next.Dirty())
}

func TestReduceDetail_MealChangeNormalizes(t *testing.T) {
	s := openedState()
	next := ReduceDetail(s, MealChanged{Slot: SlotSecondCourse, Value: "medium"})

	assert.True(t, next.Dirty())
	assert.Equal(t, MealPartial, next.Record().Meals.SecondCourse)
	// 元の状態は変わらない
	assert.Equal(t, MealNotServed, s.Record().Meals.SecondCourse)
	assert.False(t, s.Dirty())

	unknown := ReduceDetail(s, MealChanged{Slot: SlotDessert, Value: "so-so"})
	assert.Equal(t, MealNotServed, unknown.Record().Meals.Dessert)
}

func TestReduceDetail_NegativeBowelCountShowsTransientNotice(t *testing.T) {
	s := openedState()
	at := testNow.Add(time.Minute)
	next := ReduceDetail(s, BowelChanged{Movement: true, Count: -1, At: at})

	require.NotNil(t, next.Notice())
	assert.Equal(t, CodeInvalidArgument, next.Notice().Code)
	assert.Equal(t, 0, next.Record().BowelCount)
	assert.False(t, next.Dirty())

	still := ReduceDetail(next, DetailTick{Now: at.Add(NoticeTTL - time.Millisecond)})
	assert.NotNil(t, still.Notice())
	cleared := ReduceDetail(next, DetailTick{Now: at.Add(NoticeTTL)})
	assert.Nil(t, cleared.Notice())
}

func TestReduceDetail_StoreFailureNoticeIsSticky(t *testing.T) {
	s := ReduceDetail(openedState(), SaveStarted{})
	assert.True(t, s.Saving())

	failed := ReduceDetail(s, DetailFailed{Err: ErrStore("update", errors.New("timeout")), At: testNow})
	assert.False(t, failed.Saving())
	require.NotNil(t, failed.Notice())
	assert.Equal(t, CodeStore, failed.Notice().Code)

	later := ReduceDetail(failed, DetailTick{Now: testNow.Add(time.Hour)})
	assert.NotNil(t, later.Notice())
	assert.Nil(t, ReduceDetail(later, NoticeDismissed{}).Notice())
}

func TestReduceDetail_SaveSucceeded(t *testing.T) {
	s := ReduceDetail(openedState(), GeneralNotesChanged{Notes: "元気でした"})
	s = ReduceDetail(s, SaveStarted{})
	saved := s.Record()
	saved.LastModifiedByStaffID = "staff-b"

	next := ReduceDetail(s, SaveSucceeded{Record: saved})
	assert.False(t, next.Dirty())
	assert.False(t, next.Saving())
	assert.Equal(t, "元気でした", next.Record().GeneralNotes)
	assert.Equal(t, "staff-b", next.Record().LastModifiedByStaffID)
}

func TestReduceDetail_OpenCarriesWarning(t *testing.T) {
	rec := newRecord(testDay, "S1", "C1", "staff-a", testNow)
	s := ReduceDetail(DetailState{}, RecordOpened{Record: rec, Warning: "attendance not saved"})
	assert.Equal(t, "attendance not saved", s.Warning())
	assert.True(t, s.Loaded())
}
