package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carebook-backend/internal/dailyrecord"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type MockStore struct {
	FindFunc       func(ctx context.Context, id string) (dailyrecord.DailyRecord, bool, error)
	SaveReviewFunc func(ctx context.Context, id, comment string, at time.Time) (bool, error)
}

var (
	_ Store = (*MockStore)(nil)
	_ Store = (*dailyrecord.MemoryStore)(nil)
	_ Store = (*dailyrecord.SQLStore)(nil)
)

func (m *MockStore) Find(ctx context.Context, id string) (dailyrecord.DailyRecord, bool, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, id)
	}
	return dailyrecord.DailyRecord{}, false, errors.New("FindFunc not implemented in mock")
}

func (m *MockStore) SaveReview(ctx context.Context, id, comment string, at time.Time) (bool, error) {
	if m.SaveReviewFunc != nil {
		return m.SaveReviewFunc(ctx, id, comment, at)
	}
	return false, errors.New("SaveReviewFunc not implemented in mock")
}

var recordDay = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*dailyrecord.MemoryStore, *dailyrecord.Service, string) {
	t.Helper()
	store := dailyrecord.NewMemoryStore(time.UTC)
	records := dailyrecord.NewService(store, time.UTC).WithClock(fixedClock{recordDay.Add(9 * time.Hour)})
	rec, _, err := records.GetOrCreate(context.Background(), recordDay, "S1", "C1", "staff-a")
	require.NoError(t, err)
	return store, records, rec.ID
}

func TestMarkReviewed_SetsFlagCommentAndTime(t *testing.T) {
	store, records, id := setup(t)
	at := recordDay.Add(18 * time.Hour)
	svc := NewService(store).WithClock(fixedClock{at})

	rec, err := svc.MarkReviewed(context.Background(), id, "  ありがとうございます  ")
	require.NoError(t, err)
	assert.True(t, rec.ReviewedByGuardian)
	require.NotNil(t, rec.ReviewedAt)
	assert.Equal(t, at, *rec.ReviewedAt)
	assert.Equal(t, "ありがとうございます", rec.GuardianComment)

	got, err := records.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.ReviewedByGuardian)
	assert.Equal(t, "ありがとうございます", got.GuardianComment)
}

func TestMarkReviewed_FlagNeverGoesBack(t *testing.T) {
	ctx := context.Background()
	store, records, id := setup(t)
	first := recordDay.Add(18 * time.Hour)

	_, err := NewService(store).WithClock(fixedClock{first}).MarkReviewed(ctx, id, "見ました")
	require.NoError(t, err)

	// 職員の更新は既読欄を触らない
	cur, err := records.Get(ctx, id)
	require.NoError(t, err)
	cur.ReviewedByGuardian = false
	cur.GuardianComment = ""
	cur.GeneralNotes = "午後は元気でした"
	_, err = records.Update(ctx, cur, "staff-b")
	require.NoError(t, err)

	got, err := records.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.ReviewedByGuardian)
	assert.Equal(t, "見ました", got.GuardianComment)
	assert.Equal(t, "午後は元気でした", got.GeneralNotes)

	// 2回目はコメントと日時だけ上書き、空コメントでもフラグはそのまま
	second := first.Add(time.Hour)
	rec, err := NewService(store).WithClock(fixedClock{second}).MarkReviewed(ctx, id, "")
	require.NoError(t, err)
	assert.True(t, rec.ReviewedByGuardian)
	assert.Equal(t, second, *rec.ReviewedAt)
	assert.Empty(t, rec.GuardianComment)

	// GetOrCreate の再呼び出しも既存をそのまま返す
	again, created, err := records.GetOrCreate(ctx, recordDay, "S1", "C1", "staff-c")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, again.ReviewedByGuardian)
}

func TestMarkReviewed_NotFound(t *testing.T) {
	ctx := context.Background()
	store, records, id := setup(t)
	svc := NewService(store)

	_, err := svc.MarkReviewed(ctx, dailyrecord.DeriveID(recordDay, "nobody"), "x")
	assert.Equal(t, dailyrecord.CodeNotFound, dailyrecord.CodeOf(err))

	ok, err := records.SoftDelete(ctx, recordDay, "S1")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = svc.MarkReviewed(ctx, id, "x")
	assert.Equal(t, dailyrecord.CodeNotFound, dailyrecord.CodeOf(err))
}

func TestMarkReviewed_Validation(t *testing.T) {
	svc := NewService(&MockStore{})

	_, err := svc.MarkReviewed(context.Background(), "", "x")
	assert.Equal(t, dailyrecord.CodeInvalidArgument, dailyrecord.CodeOf(err))

	_, err = svc.MarkReviewed(context.Background(), "registro_20240301_S1", strings.Repeat("あ", MaxCommentLength+1))
	assert.Equal(t, dailyrecord.CodeInvalidArgument, dailyrecord.CodeOf(err))
}

func TestMarkReviewed_StoreErrorsAndRace(t *testing.T) {
	ctx := context.Background()
	rec := dailyrecord.DailyRecord{ID: "registro_20240301_S1", StudentID: "S1", Date: recordDay}

	failing := &MockStore{
		FindFunc: func(context.Context, string) (dailyrecord.DailyRecord, bool, error) {
			return rec, true, nil
		},
		SaveReviewFunc: func(context.Context, string, string, time.Time) (bool, error) {
			return false, errors.New("lock wait timeout")
		},
	}
	_, err := NewService(failing).MarkReviewed(ctx, rec.ID, "x")
	assert.Equal(t, dailyrecord.CodeStore, dailyrecord.CodeOf(err))

	deletedMeanwhile := &MockStore{
		FindFunc: failing.FindFunc,
		SaveReviewFunc: func(context.Context, string, string, time.Time) (bool, error) {
			return false, nil
		},
	}
	_, err = NewService(deletedMeanwhile).MarkReviewed(ctx, rec.ID, "x")
	assert.Equal(t, dailyrecord.CodeNotFound, dailyrecord.CodeOf(err))
}

func TestMarkReviewed_SurvivesDeleteAndRecreate(t *testing.T) {
	ctx := context.Background()
	store, records, id := setup(t)

	_, err := NewService(store).MarkReviewed(ctx, id, "確認しました")
	require.NoError(t, err)

	ok, err := records.SoftDelete(ctx, recordDay, "S1")
	require.NoError(t, err)
	require.True(t, ok)

	rec, created, err := records.GetOrCreate(ctx, recordDay, "S1", "C1", "staff-a")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, id, rec.ID)
	assert.True(t, rec.ReviewedByGuardian)
	assert.Equal(t, "確認しました", rec.GuardianComment)
}

func TestMarkReviewed_StaleLegacyIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	store, records, id := setup(t)
	cur, err := records.Get(ctx, id)
	require.NoError(t, err)
	stale := cur
	stale.ID = "temp_x"
	stale.GeneralNotes = "stale legacy"
	store.Seed(stale)

	svc := NewService(store).WithClock(fixedClock{recordDay.Add(18 * time.Hour)})
	_, err = svc.MarkReviewed(ctx, "temp_x", "見ました")
	assert.Equal(t, dailyrecord.CodeNotFound, dailyrecord.CodeOf(err))

	got, err := records.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.ReviewedByGuardian)
	assert.Empty(t, got.GuardianComment)
}

func TestMarkReviewed_LegacyIDWritesCanonicalRow(t *testing.T) {
	ctx := context.Background()
	var savedID string
	store := &MockStore{
		FindFunc: func(ctx context.Context, id string) (dailyrecord.DailyRecord, bool, error) {
			// ストアは旧IDで引いても正規IDで返す
			return dailyrecord.DailyRecord{ID: "registro_20240301_S1", StudentID: "S1", Date: recordDay}, true, nil
		},
		SaveReviewFunc: func(ctx context.Context, id, comment string, at time.Time) (bool, error) {
			savedID = id
			return true, nil
		},
	}

	rec, err := NewService(store).WithClock(fixedClock{recordDay}).MarkReviewed(ctx, "temp_y", "")
	require.NoError(t, err)
	assert.Equal(t, "registro_20240301_S1", savedID)
	assert.Equal(t, "registro_20240301_S1", rec.ID)
}
