package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/kydev/portfolio/internal/analytics"
	"github.com/kydev/portfolio/internal/locale"
	"github.com/kydev/portfolio/internal/prefs"
	"github.com/kydev/portfolio/internal/session"
	"github.com/kydev/portfolio/internal/view"
)

const (
	localeCookie = "locale"
	themeCookie  = "theme"
	cookieMaxAge = 365 * 24 * 60 * 60
)

// initialState is the state a new view starts in: configured defaults,
// optionally the browser's preferred language, optionally remembered cookies.
func (s *Server) initialState(c *gin.Context) prefs.State {
	st := s.cfg.InitialState()
	if s.cfg.Site.NegotiateLocale {
		st.Locale = locale.Negotiate(c.GetHeader("Accept-Language"), st.Locale)
	}
	if s.cfg.Site.PersistPreferences {
		if v, err := c.Cookie(localeCookie); err == nil {
			if l, err := locale.Parse(v); err == nil {
				st.Locale = l
			}
		}
		if v, err := c.Cookie(themeCookie); err == nil {
			if t, err := prefs.ParseTheme(v); err == nil {
				st.Theme = t
			}
		}
	}
	return st
}

func (s *Server) index(c *gin.Context) {
	sess, err := s.sessions.Create(s.initialState(c))
	if err != nil {
		if errors.Is(err, session.ErrFull) {
			respondError(c, http.StatusServiceUnavailable, "Too many visitors right now, please try again shortly", err)
			return
		}
		respondError(c, http.StatusServiceUnavailable, "Server is shutting down", err)
		return
	}
	s.debugf("new session %s", sess.ID)
	s.renderPage(c, http.StatusOK, sess, sess.Store.Snapshot(), nil)
}

// lookup resolves :id. Unknown or expired sessions send the browser back to
// a fresh view.
func (s *Server) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			if isHTMX(c) {
				c.Header("HX-Redirect", "/")
				c.Status(http.StatusNoContent)
				c.Abort()
			} else {
				c.Redirect(http.StatusSeeOther, "/")
			}
			return nil, false
		}
		respondError(c, http.StatusInternalServerError, "Something went wrong", err)
		return nil, false
	}
	return sess, true
}

func (s *Server) show(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	s.renderPage(c, http.StatusOK, sess, sess.Store.Snapshot(), nil)
}

// renderPage renders every section from the one snapshot st. HTMX requests
// get only the page body.
func (s *Server) renderPage(c *gin.Context, status int, sess *session.Session, st prefs.State, form *view.ContactForm) {
	page := view.Build(s.catalog, st, sess.ID, s.clk.Now())
	if form != nil {
		page.Contact.Form = *form
	}
	c.Set(localeKey, string(st.Locale))
	c.Header("Cache-Control", "no-store")
	if isHTMX(c) {
		c.HTML(status, "body", page)
		return
	}
	c.HTML(status, "page.html", page)
}

// afterPreferenceChange answers a locale or theme switch: the re-rendered
// body for HTMX, a redirect back to the view otherwise.
func (s *Server) afterPreferenceChange(c *gin.Context, sess *session.Session, st prefs.State) {
	if s.cfg.Site.PersistPreferences {
		secure := secureRequest(c)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(localeCookie, string(st.Locale), cookieMaxAge, "/", "", secure, true)
		c.SetCookie(themeCookie, st.Theme.String(), cookieMaxAge, "/", "", secure, true)
	}
	if isHTMX(c) {
		s.renderPage(c, http.StatusOK, sess, st, nil)
		return
	}
	c.Redirect(http.StatusSeeOther, "/s/"+sess.ID)
}

func (s *Server) setLocale(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	l, err := locale.Parse(c.PostForm("locale"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Unsupported language", err)
		return
	}
	st, err := sess.Store.SetLocale(l)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Unsupported language", err)
		return
	}
	s.debugf("session %s locale -> %s", sess.ID, l)
	s.recordPreference(c, analytics.PreferenceLocale, string(l))
	s.afterPreferenceChange(c, sess, st)
}

// setTheme sets the posted theme, or toggles when none is given.
func (s *Server) setTheme(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var st prefs.State
	if raw := c.PostForm("theme"); raw == "" {
		st = sess.Store.ToggleTheme()
	} else {
		t, err := prefs.ParseTheme(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Unknown theme", err)
			return
		}
		st = sess.Store.SetTheme(t)
	}
	s.debugf("session %s theme -> %s", sess.ID, st.Theme)
	s.recordPreference(c, analytics.PreferenceTheme, st.Theme.String())
	s.afterPreferenceChange(c, sess, st)
}

func (s *Server) heroStream(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "Unknown view", err)
		return
	}
	s.streamer.Serve(c.Writer, c.Request, sess)
}

func (s *Server) privacy(c *gin.Context) {
	c.HTML(http.StatusOK, "privacy.html", gin.H{
		"title":     "Privacy Policy",
		"retention": fmt.Sprintf("%d days", int(s.cfg.Analytics.Retention.Hours()/24)),
	})
}
