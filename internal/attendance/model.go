package attendance

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPresent        Status = "PRESENT"
	StatusAbsent         Status = "ABSENT"
	StatusLate           Status = "LATE"
	StatusExcusedAbsence Status = "EXCUSED_ABSENCE"
)

// ParseStatus は大小文字・前後空白を無視する
func ParseStatus(v string) (Status, bool) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(v))); st {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcusedAbsence:
		return st, true
	}
	return "", false
}

// Record はクラス×日の出欠。1日1クラスに1件。
type Record struct {
	ClassID    string
	Date       time.Time
	Marks      map[string]Status
	RecordedAt time.Time
}

func (r Record) StatusOf(studentID string) (Status, bool) {
	st, ok := r.Marks[studentID]
	return st, ok
}

func (r Record) clone() Record {
	cp := r
	cp.Marks = make(map[string]Status, len(r.Marks))
	for k, v := range r.Marks {
		cp.Marks[k] = v
	}
	return cp
}

// DB行に対応（スキャン用）
type attendanceRow struct {
	StudentID  string
	Status     string
	RecordedAt time.Time
}
