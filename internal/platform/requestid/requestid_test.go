package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(incoming string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = From(c)
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(Header, incoming)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestMiddleware_KeepsValidID(t *testing.T) {
	id := uuid.NewString()
	w, seen := serve(id)
	assert.Equal(t, id, seen)
	assert.Equal(t, id, w.Header().Get(Header))
}

func TestMiddleware_ReplacesMissingOrBogusID(t *testing.T) {
	for _, in := range []string{"", "abc; DROP TABLE"} {
		w, seen := serve(in)
		_, err := uuid.Parse(seen)
		require.NoError(t, err, in)
		assert.NotEqual(t, in, seen)
		assert.Equal(t, seen, w.Header().Get(Header))
	}
}
