package classroom

type SaveClassRequest struct {
	Name     string `json:"name" binding:"required"`
	IsActive *bool  `json:"is_active,omitempty"`
}

type EnrollRequest struct {
	StudentIDs []string `json:"student_ids" binding:"required"`
}

type HolidayRequest struct {
	Date  string `json:"date" binding:"required"` // YYYY-MM-DD
	Label string `json:"label"`
}

type ClassResponse struct {
	ClassID  string `json:"class_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type RosterResponse struct {
	ClassID    string   `json:"class_id"`
	StudentIDs []string `json:"student_ids"`
}

func (c Class) toDTO() ClassResponse {
	return ClassResponse{ClassID: c.ClassID, Name: c.Name, IsActive: c.IsActive}
}
