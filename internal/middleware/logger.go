package middleware

import (
	"log"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger middleware logs HTTP requests
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := redactQuery(c.Request.URL.RawQuery)

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		user := "-"
		if id, ok := c.Get(UserIDKey); ok {
			user, _ = id.(string)
		}

		log.Printf("[%s] %s %s user=%s %d %v %s",
			c.Request.Method,
			path,
			c.ClientIP(),
			user,
			c.Writer.Status(),
			latency,
			c.Errors.String(),
		)
	}
}

// redactQuery hides bearer tokens passed as ?token= (websocket clients)
func redactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil || !values.Has("token") {
		return raw
	}
	values.Set("token", "REDACTED")
	return values.Encode()
}
