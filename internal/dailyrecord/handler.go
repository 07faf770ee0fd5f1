package dailyrecord

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carebook-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes: staff は職員のみ、read は保護者も含む
func RegisterRoutes(staff, read gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// 園児・日付起点（IDはサーバ側で導出）
	staff.HEAD("/students/:student_id/records/:date", h.Exists)
	staff.POST("/students/:student_id/records/:date", h.GetOrCreate)
	staff.DELETE("/students/:student_id/records/:date", h.SoftDelete)

	// 連絡帳ID起点（詳細画面）
	read.GET("/records/:record_id", h.Get)
	staff.PUT("/records/:record_id", h.Update)
}

// HEAD /students/:student_id/records/:date
func (h *Handler) Exists(c *gin.Context) {
	day, err := h.svc.ParseDay(c.Param("date"))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	ok, err := h.svc.Exists(c.Request.Context(), day, c.Param("student_id"))
	if err != nil {
		c.Status(ToHTTPStatus(err))
		return
	}
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Location", "/records/"+DeriveID(day, c.Param("student_id")))
	c.Status(http.StatusOK)
}

// POST /students/:student_id/records/:date
func (h *Handler) GetOrCreate(c *gin.Context) {
	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody(CodeInvalidArgument, "invalid json or missing class_id"))
		return
	}
	day, err := h.svc.ParseDay(c.Param("date"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), ErrorFromErr(err))
		return
	}
	rec, created, err := h.svc.GetOrCreate(c.Request.Context(), day, c.Param("student_id"), req.ClassID, auth.UserID(c))
	if err != nil {
		c.JSON(ToHTTPStatus(err), ErrorFromErr(err))
		return
	}
	c.Header("Location", "/records/"+rec.ID)
	if created {
		c.JSON(http.StatusCreated, rec.ToDTO())
		return
	}
	c.JSON(http.StatusOK, rec.ToDTO())
}

// DELETE /students/:student_id/records/:date
func (h *Handler) SoftDelete(c *gin.Context) {
	day, err := h.svc.ParseDay(c.Param("date"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), ErrorFromErr(err))
		return
	}
	ok, err := h.svc.SoftDelete(c.Request.Context(), day, c.Param("student_id"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), ErrorFromErr(err))
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorBody(CodeNotFound, "daily record not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /records/:record_id
func (h *Handler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("record_id"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), ErrorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, rec.ToDTO())
}

// PUT /records/:record_id
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	rec, err := h.svc.ApplyUpdate(c.Request.Context(), c.Param("record_id"), req, auth.UserID(c))
	if err != nil {
		c.JSON(ToHTTPStatus(err), ErrorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, rec.ToDTO())
}
