package history

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carebook-backend/internal/dailyrecord"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct{ svc *Service }

// RegisterRoutes は保護者・職員の両方から見えるグループに登録する
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/students/:student_id/records", h.List)
	r.GET("/students/:student_id/records/export", h.Export)
}

func fail(c *gin.Context, err error) {
	c.JSON(dailyrecord.ToHTTPStatus(err), dailyrecord.ErrorFromErr(err))
}

// GET /students/:student_id/records?limit=  または  ?from=&to=
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	sid := c.Param("student_id")

	if from, to := c.Query("from"), c.Query("to"); from != "" || to != "" {
		start, end, err := h.parseRange(from, to)
		if err != nil {
			fail(c, err)
			return
		}
		recs, err := h.svc.ByDateRange(ctx, sid, start, end)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": dailyrecord.ToDTOs(recs)})
		return
	}

	limit := DefaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dailyrecord.ErrorBody(dailyrecord.CodeInvalidArgument, "limit must be an integer"))
			return
		}
		limit = n
	}
	recs, err := h.svc.MostRecent(ctx, sid, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": dailyrecord.ToDTOs(recs)})
}

// GET /students/:student_id/records/export?from=&to=&format=xlsx|csv
func (h *Handler) Export(c *gin.Context) {
	start, end, err := h.parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		fail(c, err)
		return
	}
	sid := c.Param("student_id")

	switch c.DefaultQuery("format", "xlsx") {
	case "xlsx":
		data, err := h.svc.Export(c.Request.Context(), sid, start, end)
		if err != nil {
			fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+ExportFilename(sid, start, end)+`"`)
		c.Data(http.StatusOK, xlsxContentType, data)
	case "csv":
		data, err := h.svc.ExportCSV(c.Request.Context(), sid, start, end)
		if err != nil {
			fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+ExportCSVFilename(sid, start, end)+`"`)
		c.Data(http.StatusOK, csvContentType, data)
	default:
		c.JSON(http.StatusBadRequest, dailyrecord.ErrorBody(dailyrecord.CodeInvalidArgument, "format must be xlsx or csv"))
	}
}

func (h *Handler) parseRange(from, to string) (start, end time.Time, err error) {
	if from == "" || to == "" {
		return start, end, dailyrecord.ErrInvalid("from and to are both required")
	}
	if start, err = h.svc.ParseDay(from); err != nil {
		return start, end, err
	}
	if end, err = h.svc.ParseDay(to); err != nil {
		return start, end, err
	}
	return start, end, nil
}
