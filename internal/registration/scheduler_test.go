package registration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunOnceCoversActiveClasses(t *testing.T) {
	f := newFixture(t)
	f.seedClass(t)
	ctx := context.Background()

	inactive := false
	_, err := f.classes.SaveClass(ctx, "C2", "閉鎖中", &inactive)
	require.NoError(t, err)

	results := NewScheduler(f.svc, f.classes, "system").RunOnce(ctx)
	require.Len(t, results, 1)
	assert.Equal(t, "C1", results[0].ClassID)
	assert.Equal(t, 4, results[0].Created)
	assert.Equal(t, 3, results[0].Skipped)

	rec, err := f.records.Get(ctx, "registro_20240301_S04")
	require.NoError(t, err)
	assert.Equal(t, "system", rec.CreatedByStaffID)
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	f := newFixture(t)
	s := NewScheduler(f.svc, f.classes, "system")
	assert.Error(t, s.Start("every morning"))

	require.NoError(t, s.Start("0 10 * * 1-5"))
	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
