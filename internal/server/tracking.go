package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kydev/portfolio/internal/analytics"
)

const localeKey = "locale"

var untrackedPrefixes = []string{"/static/", "/admin", "/favicon", "/privacy", "/healthz"}

// visitorTracking records successful page views with a hashed IP after the
// handler ran. Requests with DNT: 1 are not recorded.
func (s *Server) visitorTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || c.IsWebsocket() || c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}
		for _, p := range untrackedPrefixes {
			if strings.HasPrefix(path, p) {
				c.Next()
				return
			}
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		v := analytics.Visit{
			HashedIP:  s.tracker.HashIP(c.ClientIP()),
			UserAgent: c.GetHeader("User-Agent"),
			Path:      path,
			Locale:    c.GetString(localeKey),
			Timestamp: s.clk.Now(),
		}
		s.background(func(ctx context.Context) {
			if err := s.tracker.RecordVisit(ctx, v); err != nil {
				log.Printf("server: recording visit: %v", err)
			}
		})
	}
}

func (s *Server) recordPreference(c *gin.Context, kind analytics.PreferenceKind, value string) {
	if s.tracker == nil || c.GetHeader("DNT") == "1" {
		return
	}
	e := analytics.PreferenceEvent{Kind: kind, Value: value, Timestamp: s.clk.Now()}
	s.background(func(ctx context.Context) {
		if err := s.tracker.RecordPreference(ctx, e); err != nil {
			log.Printf("server: recording preference: %v", err)
		}
	})
}
