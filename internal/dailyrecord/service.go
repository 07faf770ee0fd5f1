package dailyrecord

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// ===== Service本体 =====

type Service struct {
	repo     Repository
	clock    Clock
	loc      *time.Location
	validate *validator.Validate
}

func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		clock:    realClock{},
		loc:      loc,
		validate: validator.New(),
	}
}

// WithClock は主にテスト用
func (s *Service) WithClock(c Clock) *Service {
	cp := *s
	cp.clock = c
	return &cp
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) Now() time.Time { return s.clock.Now() }

// Day は連絡帳のタイムゾーンでの暦日
func (s *Service) Day(t time.Time) time.Time { return CalendarDay(t, s.loc) }

func (s *Service) ParseDay(v string) (time.Time, error) {
	return ParseDay(v, s.clock.Now(), s.loc)
}

// ParseDay accepts "YYYY-MM-DD" or "today" (relative to now in loc).
func ParseDay(v string, now time.Time, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "today" {
		return CalendarDay(now, loc), nil
	}
	d, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return time.Time{}, ErrInvalid("date must be YYYY-MM-DD or 'today'")
	}
	return d, nil
}

// Exists: 削除されていない連絡帳があるか
func (s *Service) Exists(ctx context.Context, date time.Time, studentID string) (bool, error) {
	if studentID == "" {
		return false, ErrInvalid("student_id is required")
	}
	ok, err := s.repo.Exists(ctx, DeriveID(s.Day(date), studentID))
	if err != nil {
		return false, ErrStore("exists", err)
	}
	return ok, nil
}

// GetOrCreate は同じ (date, student) で何度呼んでも1件しか作らない。
// 既存があれば書き込みせずそのまま返す。
func (s *Service) GetOrCreate(ctx context.Context, date time.Time, studentID, classID, staffID string) (DailyRecord, bool, error) {
	if studentID == "" {
		return DailyRecord{}, false, ErrInvalid("student_id is required")
	}
	if classID == "" {
		return DailyRecord{}, false, ErrInvalid("class_id is required")
	}
	if staffID == "" {
		return DailyRecord{}, false, ErrInvalid("staff_id is required")
	}
	rec := newRecord(s.Day(date), studentID, classID, staffID, s.clock.Now().UTC())
	out, created, err := s.repo.GetOrCreate(ctx, rec)
	if err != nil {
		return DailyRecord{}, false, ErrStore("get or create", err)
	}
	return out.Normalized(), created, nil
}

// Get: 詳細取得。削除済みは見つからない扱い。
func (s *Service) Get(ctx context.Context, id string) (DailyRecord, error) {
	if id == "" {
		return DailyRecord{}, ErrInvalid("record id is required")
	}
	rec, found, err := s.repo.Find(ctx, id)
	if err != nil {
		return DailyRecord{}, ErrStore("find", err)
	}
	if !found || rec.Deleted {
		return DailyRecord{}, ErrNotFound("daily record not found")
	}
	return rec.Normalized(), nil
}

// Update は職員編集欄の全置換。id は date/student から再計算した値と一致している必要がある。
// 同時更新は後勝ち（版管理なし）。
func (s *Service) Update(ctx context.Context, rec DailyRecord, staffID string) (DailyRecord, error) {
	if staffID == "" {
		return DailyRecord{}, ErrInvalid("staff_id is required")
	}
	if rec.StudentID == "" {
		return DailyRecord{}, ErrInvalid("student_id is required")
	}
	if want := DeriveID(s.Day(rec.Date), rec.StudentID); rec.ID != want {
		return DailyRecord{}, ErrInvalid("id does not match date and student")
	}
	if err := validateStaffFields(rec); err != nil {
		return DailyRecord{}, err
	}

	cur, err := s.Get(ctx, rec.ID)
	if err != nil {
		return DailyRecord{}, err
	}
	next := cur.withStaffFields(rec)
	next.LastModifiedByStaffID = staffID
	next.LastModifiedAt = s.clock.Now().UTC()

	ok, err := s.repo.Replace(ctx, next)
	if err != nil {
		return DailyRecord{}, ErrStore("update", err)
	}
	if !ok {
		return DailyRecord{}, ErrNotFound("daily record not found")
	}
	return next, nil
}

// ApplyUpdate: PUT /records/:id の本体
func (s *Service) ApplyUpdate(ctx context.Context, id string, req UpdateRecordRequest, staffID string) (DailyRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return DailyRecord{}, ErrInvalid(strings.ToLower(ve[0].Field()) + " is invalid")
		}
		return DailyRecord{}, ErrInvalid("invalid request")
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return DailyRecord{}, err
	}
	return s.Update(ctx, req.applyTo(cur), staffID)
}

// SoftDelete: 行は消さず deleted を立てる。無ければ false。
func (s *Service) SoftDelete(ctx context.Context, date time.Time, studentID string) (bool, error) {
	if studentID == "" {
		return false, ErrInvalid("student_id is required")
	}
	ok, err := s.repo.SoftDelete(ctx, DeriveID(s.Day(date), studentID), s.clock.Now().UTC())
	if err != nil {
		return false, ErrStore("soft delete", err)
	}
	return ok, nil
}

func validateStaffFields(r DailyRecord) error {
	if r.ClassID == "" {
		return ErrInvalid("class_id is required")
	}
	if r.BowelCount < 0 {
		return ErrInvalid("bowel_count must be >= 0")
	}
	start, err := parseTimeOfDay(r.NapStart)
	if err != nil {
		return ErrInvalid("nap_start must be HH:MM")
	}
	end, err := parseTimeOfDay(r.NapEnd)
	if err != nil {
		return ErrInvalid("nap_end must be HH:MM")
	}
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalid("nap_end must be >= nap_start")
	}
	return nil
}

func parseTimeOfDay(p *string) (*time.Time, error) {
	if p == nil || *p == "" {
		return nil, nil
	}
	t, err := time.Parse(TimeOfDayLayout, *p)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
