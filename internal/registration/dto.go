package registration

import "carebook-backend/internal/dailyrecord"

// 空なら出席している全園児が対象
type RegisterRequest struct {
	StudentIDs []string `json:"student_ids"`
}

type FailedStudentResponse struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

type RegisterResponse struct {
	RunID           string                  `json:"run_id"`
	ClassID         string                  `json:"class_id"`
	Date            string                  `json:"date"`
	Created         int                     `json:"created"`
	Skipped         int                     `json:"skipped"`
	CreatedStudents []string                `json:"created_students"`
	SkippedStudents []string                `json:"skipped_students"`
	Failed          []FailedStudentResponse `json:"failed"`
	Holiday         bool                    `json:"holiday"`
	Warning         string                  `json:"warning,omitempty"`
}

type RosterEntryResponse struct {
	StudentID string `json:"student_id"`
	Present   bool   `json:"present"`
	HasRecord bool   `json:"has_record"`
}

type RosterResponse struct {
	ClassID  string                `json:"class_id"`
	Date     string                `json:"date"`
	Holiday  bool                  `json:"holiday"`
	Warning  string                `json:"warning,omitempty"`
	Students []RosterEntryResponse `json:"students"`
}

type OpenDetailBody struct {
	ClassID    string            `json:"class_id" binding:"required"`
	Attendance map[string]string `json:"attendance,omitempty"`
}

type OpenDetailResponse struct {
	Record            dailyrecord.RecordResponse `json:"record"`
	Created           bool                       `json:"created"`
	AttendanceWarning string                     `json:"attendance_warning,omitempty"`
}

func (r RegisterResult) toDTO() RegisterResponse {
	out := RegisterResponse{
		RunID:           r.RunID,
		ClassID:         r.ClassID,
		Date:            r.Date.Format("2006-01-02"),
		Created:         r.Created,
		Skipped:         r.Skipped,
		CreatedStudents: append([]string{}, r.CreatedStudents...),
		SkippedStudents: append([]string{}, r.SkippedStudents...),
		Failed:          make([]FailedStudentResponse, 0, len(r.Failed)),
		Holiday:         r.Holiday,
	}
	for _, f := range r.Failed {
		out.Failed = append(out.Failed, FailedStudentResponse{StudentID: f.StudentID, Reason: f.Reason})
	}
	if r.Holiday {
		out.Warning = HolidayWarning
	}
	return out
}
