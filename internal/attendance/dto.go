package attendance

import "time"

type SaveAttendanceRequest struct {
	Marks map[string]string `json:"marks" binding:"required"`
}

type AttendanceResponse struct {
	ClassID    string            `json:"class_id"`
	Date       string            `json:"date"` // YYYY-MM-DD
	Marks      map[string]Status `json:"marks"`
	RecordedAt time.Time         `json:"recorded_at"`
}

func (r Record) toDTO() AttendanceResponse {
	return AttendanceResponse{
		ClassID:    r.ClassID,
		Date:       r.Date.Format(DateLayout),
		Marks:      r.clone().Marks,
		RecordedAt: r.RecordedAt,
	}
}

const DateLayout = "2006-01-02"
