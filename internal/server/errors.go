package server

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"
)

// respondError logs err and answers with an HTML error page, or JSON when
// the client asked for it.
func respondError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		log.Printf("server: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		c.AbortWithStatusJSON(status, gin.H{"error": message})
		return
	}
	c.HTML(status, "error.html", gin.H{"status": status, "error": message})
	c.Abort()
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

func secureRequest(c *gin.Context) bool {
	return c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
}
