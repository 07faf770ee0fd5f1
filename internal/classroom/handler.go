package classroom

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carebook-backend/internal/dailyrecord"
)

type Handler struct{ svc *Service }

// RegisterRoutes: read は職員、admin はマスタ更新
func RegisterRoutes(read, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	read.GET("/classes", h.ListClasses)
	read.GET("/classes/:class_id/students", h.Roster)

	admin.PUT("/classes/:class_id", h.SaveClass)
	admin.DELETE("/classes/:class_id", h.DisableClass)
	admin.POST("/classes/:class_id/students", h.Enroll)
	admin.DELETE("/classes/:class_id/students/:student_id", h.Unenroll)
	admin.POST("/holidays", h.AddHoliday)
}

func fail(c *gin.Context, err error) {
	c.JSON(dailyrecord.ToHTTPStatus(err), dailyrecord.ErrorFromErr(err))
}

// GET /classes?all=1
func (h *Handler) ListClasses(c *gin.Context) {
	list, err := h.svc.ListClasses(c.Request.Context(), c.Query("all"))
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]ClassResponse, 0, len(list))
	for i := 0; i < len(list); i++ {
		out = append(out, list[i].toDTO())
	}
	c.JSON(http.StatusOK, out)
}

// GET /classes/:class_id/students
func (h *Handler) Roster(c *gin.Context) {
	ids, err := h.svc.StudentsInClass(c.Request.Context(), c.Param("class_id"))
	if err != nil {
		fail(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, RosterResponse{ClassID: c.Param("class_id"), StudentIDs: ids})
}

// PUT /classes/:class_id
func (h *Handler) SaveClass(c *gin.Context) {
	var req SaveClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dailyrecord.ErrorBody(dailyrecord.CodeInvalidArgument, "invalid json or missing name"))
		return
	}
	cl, err := h.svc.SaveClass(c.Request.Context(), c.Param("class_id"), req.Name, req.IsActive)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cl.toDTO())
}

// DELETE /classes/:class_id
func (h *Handler) DisableClass(c *gin.Context) {
	if err := h.svc.DisableClass(c.Request.Context(), c.Param("class_id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /classes/:class_id/students
func (h *Handler) Enroll(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dailyrecord.ErrorBody(dailyrecord.CodeInvalidArgument, "invalid json"))
		return
	}
	if err := h.svc.Enroll(c.Request.Context(), c.Param("class_id"), req.StudentIDs); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /classes/:class_id/students/:student_id
func (h *Handler) Unenroll(c *gin.Context) {
	if err := h.svc.Unenroll(c.Request.Context(), c.Param("class_id"), c.Param("student_id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /holidays
func (h *Handler) AddHoliday(c *gin.Context) {
	var req HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dailyrecord.ErrorBody(dailyrecord.CodeInvalidArgument, "invalid json or missing date"))
		return
	}
	hd, err := h.svc.AddHoliday(c.Request.Context(), req.Date, req.Label)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"date": hd.Date.Format(DateLayout), "label": hd.Label})
}
