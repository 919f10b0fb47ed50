package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinRequireAuth adapts AuthGuard.RequireAuth to Gin.
func GinRequireAuth(g *AuthGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false

		// bridge back into the gin chain once the guard admits the request
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})

		g.RequireAuth(next).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
		}
	}
}
