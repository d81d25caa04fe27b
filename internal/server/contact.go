package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kydev/portfolio/internal/mail"
	"github.com/kydev/portfolio/internal/prefs"
	"github.com/kydev/portfolio/internal/session"
	"github.com/kydev/portfolio/internal/view"
)

// ContactRequest is the posted contact form.
type ContactRequest struct {
	Session string `form:"session"`
	Name    string `form:"name" binding:"required,max=100"`
	Email   string `form:"email" binding:"required,email,max=254"`
	Message string `form:"message" binding:"required,max=5000"`
}

// contact validates and delivers a message. The outcome is reported in the
// sender's locale; HTMX requests get only the form fragment, always with 200
// so htmx swaps it in.
func (s *Server) contact(c *gin.Context) {
	var req ContactRequest
	bindErr := c.ShouldBind(&req)

	sess, st := s.contactSession(req.Session)
	form := view.NewContactForm(s.catalog, st, sessionID(sess))
	form.Name = strings.TrimSpace(req.Name)
	form.Email = strings.TrimSpace(req.Email)
	form.Message = req.Message

	status := http.StatusOK
	switch {
	case bindErr != nil:
		s.debugf("contact form rejected: %v", bindErr)
		form.Status, status = view.FormInvalid, http.StatusUnprocessableEntity
	case !s.limiter.Allow(s.clientKey(c)):
		form.Status, status = view.FormRateLimited, http.StatusTooManyRequests
	default:
		err := s.mailer.Send(c.Request.Context(), mail.Message{
			Name:   form.Name,
			Email:  form.Email,
			Body:   req.Message,
			Locale: string(st.Locale),
		})
		if err != nil {
			log.Printf("server: sending contact message: %v", err)
			form.Status, status = view.FormFailed, http.StatusBadGateway
		} else {
			form.Status = view.FormSent
			form.Name, form.Email, form.Message = "", "", ""
		}
	}

	if isHTMX(c) {
		c.HTML(http.StatusOK, "contact_form", form)
		return
	}
	if sess == nil {
		c.HTML(status, "contact_form", form)
		return
	}
	s.renderPage(c, status, sess, st, &form)
}

func (s *Server) contactSession(id string) (*session.Session, prefs.State) {
	if id != "" {
		if sess, err := s.sessions.Get(id); err == nil {
			return sess, sess.Store.Snapshot()
		}
	}
	return nil, s.cfg.InitialState()
}

func sessionID(sess *session.Session) string {
	if sess == nil {
		return ""
	}
	return sess.ID
}

func (s *Server) clientKey(c *gin.Context) string {
	if s.tracker != nil {
		return s.tracker.HashIP(c.ClientIP())
	}
	return c.ClientIP()
}
