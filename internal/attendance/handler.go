package attendance

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carebook-backend/internal/dailyrecord"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/classes/:class_id/attendance/:date", h.Get)
	r.PUT("/classes/:class_id/attendance/:date", h.Save)
}

// GET /classes/:class_id/attendance/:date
func (h *Handler) Get(c *gin.Context) {
	day, err := h.svc.ParseDay(c.Param("date"))
	if err != nil {
		c.JSON(dailyrecord.ToHTTPStatus(err), dailyrecord.ErrorFromErr(err))
		return
	}
	rec, found, err := h.svc.GetAttendance(c.Request.Context(), c.Param("class_id"), day)
	if err != nil {
		c.JSON(dailyrecord.ToHTTPStatus(err), dailyrecord.ErrorFromErr(err))
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, dailyrecord.ErrorBody(dailyrecord.CodeNotFound, "attendance not recorded"))
		return
	}
	c.JSON(http.StatusOK, rec.toDTO())
}

// PUT /classes/:class_id/attendance/:date
func (h *Handler) Save(c *gin.Context) {
	var req SaveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dailyrecord.ErrorBody(dailyrecord.CodeInvalidArgument, "invalid json"))
		return
	}
	day, err := h.svc.ParseDay(c.Param("date"))
	if err != nil {
		c.JSON(dailyrecord.ToHTTPStatus(err), dailyrecord.ErrorFromErr(err))
		return
	}
	rec, err := h.svc.SaveAttendance(c.Request.Context(), c.Param("class_id"), day, req.Marks)
	if err != nil {
		c.JSON(dailyrecord.ToHTTPStatus(err), dailyrecord.ErrorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, rec.toDTO())
}
