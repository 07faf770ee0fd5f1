package registration

import (
	"fmt"
	"sort"
	"time"

	"carebook-backend/internal/dailyrecord"
)

const HolidayWarning = "selected day is a holiday"

// SelectionState は一括登録画面の状態。ReduceSelection 以外では変わらない。
type SelectionState struct {
	classID  string
	date     time.Time
	entries  []RosterEntry
	selected map[string]struct{}
	loaded   bool
	running  bool
	holiday  bool
	notice   *dailyrecord.Notice
	last     *RegisterResult
}

func (s SelectionState) ClassID() string { return s.classID }
func (s SelectionState) Date() time.Time { return s.date }
func (s SelectionState) Loaded() bool    { return s.loaded }
func (s SelectionState) Running() bool   { return s.running }
func (s SelectionState) Holiday() bool   { return s.holiday }

func (s SelectionState) Entries() []RosterEntry {
	return append([]RosterEntry(nil), s.entries...)
}

// Selected は選択中の id（昇順）
func (s SelectionState) Selected() []string {
	out := make([]string, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s SelectionState) IsSelected(studentID string) bool {
	_, ok := s.selected[studentID]
	return ok
}

func (s SelectionState) Warning() string {
	if s.holiday {
		return HolidayWarning
	}
	return ""
}

func (s SelectionState) Notice() *dailyrecord.Notice {
	if s.notice == nil {
		return nil
	}
	n := *s.notice
	return &n
}

func (s SelectionState) LastResult() *RegisterResult {
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

func (s SelectionState) entry(studentID string) (RosterEntry, bool) {
	for _, e := range s.entries {
		if e.StudentID == studentID {
			return e, true
		}
	}
	return RosterEntry{}, false
}

type SelectionEvent interface{ selectionEvent() }

type RosterLoaded struct {
	ClassID string
	Date    time.Time
	Entries []RosterEntry
	Holiday bool
}

type StudentToggled struct {
	StudentID string
	At        time.Time
}

// AllSelected は出席かつ未記録の園児だけを選ぶ
type AllSelected struct{}

type SelectionCleared struct{}

type RegistrationStarted struct{}

type RegistrationFinished struct {
	Result RegisterResult
	At     time.Time
}

type RegistrationFailed struct {
	Err error
	At  time.Time
}

type SelectionTick struct{ Now time.Time }

type SelectionNoticeDismissed struct{}

func (RosterLoaded) selectionEvent()             {}
func (StudentToggled) selectionEvent()           {}
func (AllSelected) selectionEvent()              {}
func (SelectionCleared) selectionEvent()         {}
func (RegistrationStarted) selectionEvent()      {}
func (RegistrationFinished) selectionEvent()     {}
func (RegistrationFailed) selectionEvent()       {}
func (SelectionTick) selectionEvent()            {}
func (SelectionNoticeDismissed) selectionEvent() {}

func copySet(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// ReduceSelection returns the next state; s is never modified.
func ReduceSelection(s SelectionState, ev SelectionEvent) SelectionState {
	next := s
	next.entries = s.Entries()
	next.selected = copySet(s.selected)

	switch e := ev.(type) {
	case RosterLoaded:
		return SelectionState{
			classID:  e.ClassID,
			date:     e.Date,
			entries:  append([]RosterEntry(nil), e.Entries...),
			selected: map[string]struct{}{},
			loaded:   true,
			holiday:  e.Holiday,
		}
	case StudentToggled:
		if !s.loaded || s.running {
			return s
		}
		ent, ok := s.entry(e.StudentID)
		if !ok {
			return s
		}
		if _, on := next.selected[e.StudentID]; on {
			delete(next.selected, e.StudentID)
			return next
		}
		if ent.HasRecord {
			next.notice = dailyrecord.NewNotice(dailyrecord.ErrInvalid("student "+e.StudentID+" already has a record for this day"), e.At)
			return next
		}
		next.selected[e.StudentID] = struct{}{}
	case AllSelected:
		if !s.loaded || s.running {
			return s
		}
		next.selected = map[string]struct{}{}
		for _, ent := range s.entries {
			if ent.Present && !ent.HasRecord {
				next.selected[ent.StudentID] = struct{}{}
			}
		}
	case SelectionCleared:
		next.selected = map[string]struct{}{}
	case RegistrationStarted:
		if !s.loaded {
			return s
		}
		next.running = true
		next.notice = nil
	case RegistrationFinished:
		res := e.Result
		next.running = false
		next.last = &res

		done := make(map[string]struct{}, len(res.CreatedStudents)+len(res.SkippedStudents))
		for _, sid := range res.CreatedStudents {
			done[sid] = struct{}{}
		}
		for _, sid := range res.SkippedStudents {
			done[sid] = struct{}{}
		}
		for i := range next.entries {
			if _, ok := done[next.entries[i].StudentID]; ok {
				next.entries[i].HasRecord = true
			}
		}
		// 失敗した園児だけ選択に残して再実行できるようにする
		failed := make(map[string]struct{}, len(res.Failed))
		for _, f := range res.Failed {
			if _, on := s.selected[f.StudentID]; on {
				failed[f.StudentID] = struct{}{}
			}
		}
		next.selected = failed
		next.notice = nil
		if len(res.Failed) > 0 {
			err := dailyrecord.ErrStore("register", fmt.Errorf("%d of the students could not be registered", len(res.Failed)))
			next.notice = dailyrecord.NewNotice(err, e.At)
		}
	case RegistrationFailed:
		next.running = false
		next.notice = dailyrecord.NewNotice(e.Err, e.At)
	case SelectionTick:
		next.notice = dailyrecord.ClearExpired(s.notice, e.Now)
	case SelectionNoticeDismissed:
		next.notice = nil
	}
	return next
}
