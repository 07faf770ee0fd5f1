package registration

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"carebook-backend/internal/dailyrecord"
	"carebook-backend/internal/platform/auth"
	"carebook-backend/internal/platform/requestid"
)

type Handler struct{ svc *Service }

// RegisterRoutes は職員用グループに登録する
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/classes/:class_id/records/:date/roster", h.Roster)
	r.POST("/classes/:class_id/records/:date", h.Register)
	r.POST("/students/:student_id/records/:date/open", h.OpenDetail)
}

func fail(c *gin.Context, err error) {
	c.JSON(dailyrecord.ToHTTPStatus(err), dailyrecord.ErrorFromErr(err))
}

// GET /classes/:class_id/records/:date/roster
func (h *Handler) Roster(c *gin.Context) {
	day, err := h.svc.ParseDay(c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}
	entries, holiday, err := h.svc.SelectableStudents(c.Request.Context(), c.Param("class_id"), day)
	if err != nil {
		fail(c, err)
		return
	}
	resp := RosterResponse{
		ClassID:  c.Param("class_id"),
		Date:     day.Format("2006-01-02"),
		Holiday:  holiday,
		Students: make([]RosterEntryResponse, 0, len(entries)),
	}
	if holiday {
		resp.Warning = HolidayWarning
	}
	for _, e := range entries {
		resp.Students = append(resp.Students, RosterEntryResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}

// POST /classes/:class_id/records/:date
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dailyrecord.ErrorBody(dailyrecord.CodeInvalidArgument, "invalid json"))
			return
		}
	}
	day, err := h.svc.ParseDay(c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var res RegisterResult
	if len(req.StudentIDs) == 0 {
		res, err = h.svc.RegisterPresentStudents(ctx, c.Param("class_id"), day, auth.UserID(c))
	} else {
		res, err = h.svc.RegisterSelected(ctx, c.Param("class_id"), day, auth.UserID(c), req.StudentIDs)
	}
	if err != nil {
		if errors.Is(err, ctx.Err()) && res.RunID != "" {
			log.Printf("[WARN] registration aborted run=%s request_id=%s created=%d", res.RunID, requestid.From(c), res.Created)
		}
		fail(c, err)
		return
	}
	log.Printf("[INFO] registration run=%s class=%s date=%s created=%d skipped=%d failed=%d request_id=%s",
		res.RunID, res.ClassID, res.Date.Format("2006-01-02"), res.Created, res.Skipped, len(res.Failed), requestid.From(c))
	c.JSON(http.StatusOK, res.toDTO())
}

// POST /students/:student_id/records/:date/open
func (h *Handler) OpenDetail(c *gin.Context) {
	var body OpenDetailBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dailyrecord.ErrorBody(dailyrecord.CodeInvalidArgument, "invalid json or missing class_id"))
		return
	}
	day, err := h.svc.ParseDay(c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}
	out, err := h.svc.OpenDetail(c.Request.Context(), OpenDetailRequest{
		ClassID:    body.ClassID,
		StudentID:  c.Param("student_id"),
		StaffID:    auth.UserID(c),
		Date:       day,
		Attendance: body.Attendance,
	})
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	c.Header("Location", "/records/"+out.Record.ID)
	c.JSON(status, OpenDetailResponse{
		Record:            out.Record.ToDTO(),
		Created:           out.Created,
		AttendanceWarning: out.AttendanceWarning,
	})
}
