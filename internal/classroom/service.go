package classroom

import (
	"context"
	"strings"
	"time"

	"carebook-backend/internal/dailyrecord"
)

// Service はクラス・在籍・休園日のマスタ管理。連絡帳側からは名簿と休園日の参照だけ使う。
type Service struct {
	repo Repository
	loc  *time.Location
}

func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc}
}

func parseBoolish(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "1" || s == "true" || s == "yes" || s == "all"
}

func normalizeID(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", dailyrecord.ErrInvalid(field + " is required")
	}
	return v, nil
}

// ===== classes =====

func (s *Service) ListClasses(ctx context.Context, all string) ([]Class, error) {
	out, err := s.repo.ListClasses(ctx, parseBoolish(all))
	if err != nil {
		return nil, dailyrecord.ErrStore("list classes", err)
	}
	return out, nil
}

// ActiveClasses は自動登録ジョブ用
func (s *Service) ActiveClasses(ctx context.Context) ([]Class, error) {
	return s.ListClasses(ctx, "")
}

func (s *Service) GetClass(ctx context.Context, classID string) (Class, error) {
	c, found, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return Class{}, dailyrecord.ErrStore("get class", err)
	}
	if !found {
		return Class{}, dailyrecord.ErrNotFound("class not found")
	}
	return c, nil
}

func (s *Service) SaveClass(ctx context.Context, classID, name string, active *bool) (Class, error) {
	id, err := normalizeID("class_id", classID)
	if err != nil {
		return Class{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Class{}, dailyrecord.ErrInvalid("name is required")
	}
	c := Class{ClassID: id, Name: name, IsActive: true}
	if active != nil {
		c.IsActive = *active
	}
	if err := s.repo.SaveClass(ctx, c); err != nil {
		return Class{}, dailyrecord.ErrStore("save class", err)
	}
	return c, nil
}

// DisableClass: 行は残して is_active=0
func (s *Service) DisableClass(ctx context.Context, classID string) error {
	c, err := s.GetClass(ctx, classID)
	if err != nil {
		return err
	}
	c.IsActive = false
	if err := s.repo.SaveClass(ctx, c); err != nil {
		return dailyrecord.ErrStore("disable class", err)
	}
	return nil
}

// ===== roster =====

func (s *Service) StudentsInClass(ctx context.Context, classID string) ([]string, error) {
	id, err := normalizeID("class_id", classID)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.StudentsInClass(ctx, id)
	if err != nil {
		return nil, dailyrecord.ErrStore("students in class", err)
	}
	return out, nil
}

func (s *Service) Enroll(ctx context.Context, classID string, studentIDs []string) error {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return err
	}
	ids := make([]string, 0, len(studentIDs))
	for _, sid := range studentIDs {
		v, err := normalizeID("student_id", sid)
		if err != nil {
			return err
		}
		ids = append(ids, v)
	}
	if len(ids) == 0 {
		return dailyrecord.ErrInvalid("student_ids must not be empty")
	}
	if err := s.repo.Enroll(ctx, classID, ids); err != nil {
		return dailyrecord.ErrStore("enroll", err)
	}
	return nil
}

func (s *Service) Unenroll(ctx context.Context, classID, studentID string) error {
	ok, err := s.repo.Unenroll(ctx, classID, studentID)
	if err != nil {
		return dailyrecord.ErrStore("unenroll", err)
	}
	if !ok {
		return dailyrecord.ErrNotFound("enrollment not found")
	}
	return nil
}

// ===== holidays =====

// IsHoliday は画面の警告用。登録処理を止めるものではない。
func (s *Service) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	ok, err := s.repo.IsHoliday(ctx, dailyrecord.CalendarDay(date, s.loc))
	if err != nil {
		return false, dailyrecord.ErrStore("is holiday", err)
	}
	return ok, nil
}

func (s *Service) AddHoliday(ctx context.Context, date, label string) (Holiday, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), s.loc)
	if err != nil {
		return Holiday{}, dailyrecord.ErrInvalid("date must be YYYY-MM-DD")
	}
	h := Holiday{Date: d, Label: strings.TrimSpace(label)}
	if err := s.repo.AddHoliday(ctx, h); err != nil {
		return Holiday{}, dailyrecord.ErrStore("add holiday", err)
	}
	return h, nil
}
