package history

import (
	"time"

	"carebook-backend/internal/dailyrecord"
)

type Mode int

const (
	ModeRecent Mode = iota
	ModeRange
)

// HistoryState は履歴画面の状態。ReduceHistory 以外で変えない。
type HistoryState struct {
	studentID string
	mode      Mode
	limit     int
	from, to  time.Time
	records   []dailyrecord.DailyRecord
	loading   bool
	notice    *dailyrecord.Notice
}

func (s HistoryState) StudentID() string { return s.studentID }
func (s HistoryState) Mode() Mode        { return s.mode }
func (s HistoryState) Limit() int        { return s.limit }
func (s HistoryState) From() time.Time   { return s.from }
func (s HistoryState) To() time.Time     { return s.to }
func (s HistoryState) Loading() bool     { return s.loading }

func (s HistoryState) Records() []dailyrecord.DailyRecord {
	return append([]dailyrecord.DailyRecord(nil), s.records...)
}

func (s HistoryState) Notice() *dailyrecord.Notice {
	if s.notice == nil {
		return nil
	}
	n := *s.notice
	return &n
}

type HistoryEvent interface{ historyEvent() }

type RecentRequested struct {
	StudentID string
	Limit     int
	At        time.Time
}

type RangeRequested struct {
	StudentID string
	From, To  time.Time
	At        time.Time
}

type HistoryLoaded struct{ Records []dailyrecord.DailyRecord }

type HistoryFailed struct {
	Err error
	At  time.Time
}

type HistoryTick struct{ Now time.Time }

type HistoryNoticeDismissed struct{}

func (RecentRequested) historyEvent()        {}
func (RangeRequested) historyEvent()         {}
func (HistoryLoaded) historyEvent()          {}
func (HistoryFailed) historyEvent()          {}
func (HistoryTick) historyEvent()            {}
func (HistoryNoticeDismissed) historyEvent() {}

// ReduceHistory returns the next state; s is never modified.
func ReduceHistory(s HistoryState, ev HistoryEvent) HistoryState {
	next := s
	next.records = s.Records()

	switch e := ev.(type) {
	case RecentRequested:
		if e.Limit <= 0 {
			next.notice = dailyrecord.NewNotice(dailyrecord.ErrInvalid("limit must be > 0"), e.At)
			return next
		}
		next.studentID = e.StudentID
		next.mode = ModeRecent
		next.limit = e.Limit
		next.loading = true
		next.notice = nil
	case RangeRequested:
		if e.To.Before(e.From) {
			next.notice = dailyrecord.NewNotice(dailyrecord.ErrInvalid("end must be >= start"), e.At)
			return next
		}
		next.studentID = e.StudentID
		next.mode = ModeRange
		next.from, next.to = e.From, e.To
		next.loading = true
		next.notice = nil
	case HistoryLoaded:
		if !s.loading {
			return s
		}
		next.records = append([]dailyrecord.DailyRecord(nil), e.Records...)
		next.loading = false
	case HistoryFailed:
		next.loading = false
		next.notice = dailyrecord.NewNotice(e.Err, e.At)
	case HistoryTick:
		next.notice = dailyrecord.ClearExpired(s.notice, e.Now)
	case HistoryNoticeDismissed:
		next.notice = nil
	}
	return next
}
