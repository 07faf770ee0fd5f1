package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	Header = "X-Request-ID"
	ctxKey = "request_id"
)

// Middleware は受け取った X-Request-ID が UUID ならそのまま使い、無ければ採番する
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ctxKey, id)
		c.Header(Header, id)
		c.Next()
	}
}

func From(c *gin.Context) string {
	return c.GetString(ctxKey)
}
