package history

import (
	"context"
	"time"

	"carebook-backend/internal/dailyrecord"
)

const (
	DefaultLimit = 30
	MaxLimit     = 366
	// 1回の範囲検索で読む最大日数
	MaxRangeDays = 366
)

type Reader interface {
	ListByStudent(ctx context.Context, f dailyrecord.ListFilter) ([]dailyrecord.DailyRecord, error)
}

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service は保護者・職員向けの履歴参照。読み出した記録は必ず正規化と旧ID移行を通す。
type Service struct {
	repo  Reader
	clock Clock
	loc   *time.Location
}

func NewService(repo Reader, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, clock: realClock{}, loc: loc}
}

func (s *Service) WithClock(c Clock) *Service {
	cp := *s
	cp.clock = c
	return &cp
}

func (s *Service) ParseDay(v string) (time.Time, error) {
	return dailyrecord.ParseDay(v, s.clock.Now(), s.loc)
}

// MostRecent: 削除されていない記録を新しい日付から最大 limit 件
func (s *Service) MostRecent(ctx context.Context, studentID string, limit int) ([]dailyrecord.DailyRecord, error) {
	if studentID == "" {
		return nil, dailyrecord.ErrInvalid("student_id is required")
	}
	if limit <= 0 {
		return nil, dailyrecord.ErrInvalid("limit must be > 0")
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	recs, err := s.repo.ListByStudent(ctx, dailyrecord.ListFilter{StudentID: studentID, Limit: limit})
	if err != nil {
		return nil, dailyrecord.ErrStore("list history", err)
	}
	return s.finalize(recs, nil, nil, limit), nil
}

// ByDateRange は start の 00:00:00 から end の 23:59:59 まで（連絡帳のタイムゾーン）
func (s *Service) ByDateRange(ctx context.Context, studentID string, start, end time.Time) ([]dailyrecord.DailyRecord, error) {
	if studentID == "" {
		return nil, dailyrecord.ErrInvalid("student_id is required")
	}
	from := dailyrecord.CalendarDay(start, s.loc)
	to := dailyrecord.CalendarDay(end, s.loc)
	if to.Before(from) {
		return nil, dailyrecord.ErrInvalid("end must be >= start")
	}
	if to.Sub(from) > MaxRangeDays*24*time.Hour {
		return nil, dailyrecord.ErrInvalid("date range is too long")
	}
	recs, err := s.repo.ListByStudent(ctx, dailyrecord.ListFilter{StudentID: studentID, From: &from, To: &to})
	if err != nil {
		return nil, dailyrecord.ErrStore("list history", err)
	}
	return s.finalize(recs, &from, &to, 0), nil
}

// finalize はどの保存先から来ても同じ結果になるように整える（何度通しても同じ）
func (s *Service) finalize(recs []dailyrecord.DailyRecord, from, to *time.Time, limit int) []dailyrecord.DailyRecord {
	migrated := dailyrecord.MigrateLegacy(recs)
	out := make([]dailyrecord.DailyRecord, 0, len(migrated))
	for _, r := range migrated {
		if r.Deleted {
			continue
		}
		day := dailyrecord.CalendarDay(r.Date, s.loc)
		if from != nil && day.Before(*from) {
			continue
		}
		if to != nil && day.After(*to) {
			continue
		}
		out = append(out, r.Normalized())
	}
	dailyrecord.SortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
