package review

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carebook-backend/internal/dailyrecord"
)

type Handler struct{ svc *Service }

// RegisterRoutes は保護者グループに登録する
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/records/:record_id/review", h.MarkReviewed)
}

// POST /records/:record_id/review
func (h *Handler) MarkReviewed(c *gin.Context) {
	var req MarkReviewedRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dailyrecord.ErrorBody(dailyrecord.CodeInvalidArgument, "invalid json"))
			return
		}
	}
	rec, err := h.svc.MarkReviewed(c.Request.Context(), c.Param("record_id"), req.Comment)
	if err != nil {
		c.JSON(dailyrecord.ToHTTPStatus(err), dailyrecord.ErrorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, rec.ToDTO())
}
