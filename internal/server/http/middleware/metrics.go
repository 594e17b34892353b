package middleware

import "github.com/gin-gonic/gin"

// RequestObserver starts tracking a request and returns the callback that
// records its outcome.
type RequestObserver interface {
	RequestStarted() func(method, path string, status int)
}

// Metrics records request counts and latencies by route template.
func Metrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := observer.RequestStarted()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		done(c.Request.Method, path, c.Writer.Status())
	}
}
