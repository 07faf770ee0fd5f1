package registration

import (
	"context"
	"crypto/rand"
	"log"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"carebook-backend/internal/attendance"
	"carebook-backend/internal/dailyrecord"
)

// ===== インターフェース群 =====

type Gate interface {
	IsEligible(ctx context.Context, studentID, classID string, date time.Time) (bool, error)
}

type Records interface {
	Exists(ctx context.Context, date time.Time, studentID string) (bool, error)
	GetOrCreate(ctx context.Context, date time.Time, studentID, classID, staffID string) (dailyrecord.DailyRecord, bool, error)
}

type Roster interface {
	StudentsInClass(ctx context.Context, classID string) ([]string, error)
}

// Calendar は休園日の警告表示にだけ使う
type Calendar interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

type AttendanceWriter interface {
	SaveAttendance(ctx context.Context, classID string, date time.Time, marks map[string]string) (attendance.Record, error)
}

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// ===== 結果 =====

type FailedStudent struct {
	StudentID string
	Reason    string
}

type RegisterResult struct {
	RunID           string
	ClassID         string
	Date            time.Time
	Created         int
	Skipped         int
	CreatedStudents []string
	SkippedStudents []string
	Failed          []FailedStudent
	Holiday         bool
}

func (r *RegisterResult) created(sid string) {
	r.Created++
	r.CreatedStudents = append(r.CreatedStudents, sid)
}

func (r *RegisterResult) skipped(sid string) {
	r.Skipped++
	r.SkippedStudents = append(r.SkippedStudents, sid)
}

func (r *RegisterResult) fail(sid string, err error) {
	r.Failed = append(r.Failed, FailedStudent{StudentID: sid, Reason: dailyrecord.ErrorFromErr(err).Error.Message})
}

type RosterEntry struct {
	StudentID string
	Present   bool
	HasRecord bool
}

// ===== Service本体 =====

type Deps struct {
	Gate       Gate
	Records    Records
	Roster     Roster
	Calendar   Calendar
	Attendance AttendanceWriter
}

type Service struct {
	gate       Gate
	records    Records
	roster     Roster
	calendar   Calendar
	attendance AttendanceWriter
	clock      Clock
	id         IDGen
	loc        *time.Location
}

func NewService(d Deps, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		gate:       d.Gate,
		records:    d.Records,
		roster:     d.Roster,
		calendar:   d.Calendar,
		attendance: d.Attendance,
		clock:      realClock{},
		id:         ulidGen{},
		loc:        loc,
	}
}

func (s *Service) WithClock(c Clock) *Service {
	cp := *s
	cp.clock = c
	return &cp
}

func (s *Service) Now() time.Time { return s.clock.Now() }

func (s *Service) ParseDay(v string) (time.Time, error) {
	return dailyrecord.ParseDay(v, s.clock.Now(), s.loc)
}

func (s *Service) newResult(ctx context.Context, classID string, day time.Time) RegisterResult {
	res := RegisterResult{
		RunID:   s.id.NewULID(s.clock.Now()),
		ClassID: classID,
		Date:    day,
	}
	if s.calendar != nil {
		h, err := s.calendar.IsHoliday(ctx, day)
		if err != nil {
			log.Printf("[WARN] holiday lookup failed run=%s: %v", res.RunID, err)
		}
		res.Holiday = h
	}
	return res
}

// RegisterPresentStudents はクラス名簿のうち出席(PRESENT)の園児に連絡帳を作る。
// 既にある園児は skipped、欠席などは数えない。1人の失敗で全体は止めない。
// ctx がキャンセルされたらそこまでの結果と ctx.Err() を返す。
func (s *Service) RegisterPresentStudents(ctx context.Context, classID string, date time.Time, staffID string) (RegisterResult, error) {
	if classID == "" {
		return RegisterResult{}, dailyrecord.ErrInvalid("class_id is required")
	}
	if staffID == "" {
		return RegisterResult{}, dailyrecord.ErrInvalid("staff_id is required")
	}
	day := dailyrecord.CalendarDay(date, s.loc)
	res := s.newResult(ctx, classID, day)

	students, err := s.roster.StudentsInClass(ctx, classID)
	if err != nil {
		return res, dailyrecord.ErrStore("roster", err)
	}
	err = s.run(ctx, &res, classID, day, staffID, students)
	return res, err
}

// RegisterSelected は画面で選んだ園児だけを対象にする。記録済みの園児は
// FilterSelectable と同じ判定で先に除外し skipped に数える。
func (s *Service) RegisterSelected(ctx context.Context, classID string, date time.Time, staffID string, studentIDs []string) (RegisterResult, error) {
	if classID == "" {
		return RegisterResult{}, dailyrecord.ErrInvalid("class_id is required")
	}
	if staffID == "" {
		return RegisterResult{}, dailyrecord.ErrInvalid("staff_id is required")
	}
	if len(studentIDs) == 0 {
		return RegisterResult{}, dailyrecord.ErrInvalid("student_ids must not be empty")
	}
	day := dailyrecord.CalendarDay(date, s.loc)
	res := s.newResult(ctx, classID, day)

	roster, err := s.roster.StudentsInClass(ctx, classID)
	if err != nil {
		return res, dailyrecord.ErrStore("roster", err)
	}
	enrolled := make(map[string]struct{}, len(roster))
	for _, sid := range roster {
		enrolled[sid] = struct{}{}
	}

	wanted := make([]string, 0, len(studentIDs))
	for _, sid := range dedupe(studentIDs) {
		if _, ok := enrolled[sid]; !ok {
			res.fail(sid, dailyrecord.ErrInvalid("student is not enrolled in class"))
			continue
		}
		// 出席していない園児は件数に含めない
		ok, err := s.gate.IsEligible(ctx, sid, classID, day)
		if err != nil {
			res.fail(sid, err)
			continue
		}
		if !ok {
			continue
		}
		wanted = append(wanted, sid)
	}

	selectable, err := s.FilterSelectable(ctx, day, wanted)
	if err != nil {
		return res, err
	}
	keep := make(map[string]struct{}, len(selectable))
	for _, sid := range selectable {
		keep[sid] = struct{}{}
	}
	for _, sid := range wanted {
		if _, ok := keep[sid]; !ok {
			res.skipped(sid)
		}
	}

	err = s.run(ctx, &res, classID, day, staffID, selectable)
	return res, err
}

// 園児ごとに順番に処理する（件数と実際の処理を1対1にするため並列にしない）
func (s *Service) run(ctx context.Context, res *RegisterResult, classID string, day time.Time, staffID string, students []string) error {
	for _, sid := range students {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := s.gate.IsEligible(ctx, sid, classID, day)
		if err != nil {
			res.fail(sid, err)
			continue
		}
		if !ok {
			continue
		}
		exists, err := s.records.Exists(ctx, day, sid)
		if err != nil {
			res.fail(sid, err)
			continue
		}
		if exists {
			res.skipped(sid)
			continue
		}
		_, created, err := s.records.GetOrCreate(ctx, day, sid, classID, staffID)
		if err != nil {
			res.fail(sid, err)
			continue
		}
		if created {
			res.created(sid)
		} else {
			// Exists の後に別の職員が作った
			res.skipped(sid)
		}
	}
	return nil
}

// FilterSelectable は記録済みの園児を除いた id を返す（入力順、重複なし）
func (s *Service) FilterSelectable(ctx context.Context, date time.Time, studentIDs []string) ([]string, error) {
	day := dailyrecord.CalendarDay(date, s.loc)
	out := make([]string, 0, len(studentIDs))
	for _, sid := range dedupe(studentIDs) {
		exists, err := s.records.Exists(ctx, day, sid)
		if err != nil {
			return nil, err
		}
		if !exists {
			out = append(out, sid)
		}
	}
	return out, nil
}

// SelectableStudents: 選択画面用の名簿（出席・記録済みフラグ付き）
func (s *Service) SelectableStudents(ctx context.Context, classID string, date time.Time) ([]RosterEntry, bool, error) {
	if classID == "" {
		return nil, false, dailyrecord.ErrInvalid("class_id is required")
	}
	day := dailyrecord.CalendarDay(date, s.loc)
	students, err := s.roster.StudentsInClass(ctx, classID)
	if err != nil {
		return nil, false, dailyrecord.ErrStore("roster", err)
	}
	out := make([]RosterEntry, 0, len(students))
	for _, sid := range students {
		present, err := s.gate.IsEligible(ctx, sid, classID, day)
		if err != nil {
			return nil, false, err
		}
		has, err := s.records.Exists(ctx, day, sid)
		if err != nil {
			return nil, false, err
		}
		out = append(out, RosterEntry{StudentID: sid, Present: present, HasRecord: has})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })

	holiday := false
	if s.calendar != nil {
		if holiday, err = s.calendar.IsHoliday(ctx, day); err != nil {
			log.Printf("[WARN] holiday lookup failed class=%s: %v", classID, err)
			holiday = false
		}
	}
	return out, holiday, nil
}

// ===== 詳細画面へ進む前の出欠保存 =====

type OpenDetailRequest struct {
	ClassID    string
	StudentID  string
	StaffID    string
	Date       time.Time
	Attendance map[string]string
}

type OpenDetailResult struct {
	Record            dailyrecord.DailyRecord
	Created           bool
	AttendanceWarning string
}

// OpenDetail は出欠を保存してから連絡帳を取得/作成する。出欠の保存に失敗しても
// 警告を返すだけで先へ進む。ここは直接作成の経路なので出欠ゲートは見ない。
func (s *Service) OpenDetail(ctx context.Context, in OpenDetailRequest) (OpenDetailResult, error) {
	var out OpenDetailResult
	day := dailyrecord.CalendarDay(in.Date, s.loc)

	if len(in.Attendance) > 0 && s.attendance != nil {
		if _, err := s.attendance.SaveAttendance(ctx, in.ClassID, day, in.Attendance); err != nil {
			log.Printf("[WARN] attendance not saved class=%s date=%s: %v", in.ClassID, day.Format("2006-01-02"), err)
			out.AttendanceWarning = "attendance was not saved: " + dailyrecord.ErrorFromErr(err).Error.Message
		}
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	rec, created, err := s.records.GetOrCreate(ctx, day, in.StudentID, in.ClassID, in.StaffID)
	if err != nil {
		return out, err
	}
	out.Record = rec
	out.Created = created
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
