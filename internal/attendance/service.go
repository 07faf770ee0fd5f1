package attendance

import (
	"context"
	"time"

	"carebook-backend/internal/dailyrecord"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// ===== Service =====

type Service struct {
	repo  Repository
	clock Clock
	loc   *time.Location
}

func NewService(repo Repository, loc *time.Location) *Service {
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

// GetAttendance: 未登録は found=false
func (s *Service) GetAttendance(ctx context.Context, classID string, date time.Time) (Record, bool, error) {
	if classID == "" {
		return Record{}, false, dailyrecord.ErrInvalid("class_id is required")
	}
	rec, found, err := s.repo.Get(ctx, classID, dailyrecord.CalendarDay(date, s.loc))
	if err != nil {
		return Record{}, false, dailyrecord.ErrStore("get attendance", err)
	}
	return rec, found, nil
}

// SaveAttendance は渡された園児分だけ上書きする
func (s *Service) SaveAttendance(ctx context.Context, classID string, date time.Time, marks map[string]string) (Record, error) {
	if classID == "" {
		return Record{}, dailyrecord.ErrInvalid("class_id is required")
	}
	if len(marks) == 0 {
		return Record{}, dailyrecord.ErrInvalid("marks must not be empty")
	}
	rec := Record{
		ClassID:    classID,
		Date:       dailyrecord.CalendarDay(date, s.loc),
		Marks:      make(map[string]Status, len(marks)),
		RecordedAt: s.clock.Now().UTC(),
	}
	for sid, raw := range marks {
		if sid == "" {
			return Record{}, dailyrecord.ErrInvalid("student_id must not be empty")
		}
		st, ok := ParseStatus(raw)
		if !ok {
			return Record{}, dailyrecord.ErrInvalid("unknown attendance status: " + raw)
		}
		rec.Marks[sid] = st
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return Record{}, dailyrecord.ErrStore("save attendance", err)
	}
	return rec, nil
}

// IsEligible: その日の出欠で PRESENT のときだけ true。
// 出欠がまだ無い場合もエラーにせず false（fail closed）。
func (s *Service) IsEligible(ctx context.Context, studentID, classID string, date time.Time) (bool, error) {
	rec, found, err := s.GetAttendance(ctx, classID, date)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	st, ok := rec.StatusOf(studentID)
	return ok && st == StatusPresent, nil
}
