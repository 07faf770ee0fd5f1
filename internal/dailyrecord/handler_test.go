package dailyrecord

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carebook-backend/internal/platform/auth"
)

func newTestRouter(t *testing.T) (*gin.Engine, *MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, svc := newTestService()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.CtxUserIDKey, "staff-a")
		c.Next()
	})
	RegisterRoutes(r, r, svc)
	return r, store
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateThenGet(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/students/S1/records/2024-03-01", CreateRecordRequest{ClassID: "C1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/records/registro_20240301_S1", w.Header().Get("Location"))

	var created RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "registro_20240301_S1", created.ID)
	assert.Equal(t, "2024-03-01", created.Date)
	assert.Equal(t, "staff-a", created.CreatedByStaffID)
	assert.Equal(t, "NOT_SERVED", created.Meals.Snack)

	w = doJSON(r, http.MethodPost, "/students/S1/records/2024-03-01", CreateRecordRequest{ClassID: "C1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/records/registro_20240301_S1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_ExistsAndDelete(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodHead, "/students/S1/records/2024-03-01", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	doJSON(r, http.MethodPost, "/students/S1/records/2024-03-01", CreateRecordRequest{ClassID: "C1"})
	w = doJSON(r, http.MethodHead, "/students/S1/records/2024-03-01", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, "/students/S1/records/2024-03-01", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodDelete, "/students/S1/records/2024-03-01", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodDelete, "/students/S2/records/2024-03-01", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/records/registro_20240301_S1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeNotFound, body.Error.Code)
}

func TestHandler_Update(t *testing.T) {
	r, _ := newTestRouter(t)
	doJSON(r, http.MethodPost, "/students/S1/records/2024-03-01", CreateRecordRequest{ClassID: "C1"})

	w := doJSON(r, http.MethodPut, "/records/registro_20240301_S1", map[string]any{
		"class_id":    "C1",
		"meals":       map[string]string{"first_course": "good", "dessert": "BAD"},
		"nap_taken":   true,
		"nap_start":   "12:30",
		"nap_end":     "14:00",
		"bowel_count": 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "COMPLETE", got.Meals.FirstCourse)
	assert.Equal(t, "REFUSED", got.Meals.Dessert)
	require.NotNil(t, got.NapStart)
	assert.Equal(t, "12:30", *got.NapStart)

	w = doJSON(r, http.MethodPut, "/records/registro_20240301_S1", map[string]any{
		"class_id": "C1", "nap_start": "15:00", "nap_end": "14:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_BadInput(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/students/S1/records/2024-03-01", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/students/S1/records/yesterday", CreateRecordRequest{ClassID: "C1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
