// Package server wires the page, the hero stream, the contact form and the
// admin dashboard into a gin engine.
package server

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/kydev/portfolio/internal/admin"
	"github.com/kydev/portfolio/internal/analytics"
	"github.com/kydev/portfolio/internal/clock"
	"github.com/kydev/portfolio/internal/config"
	"github.com/kydev/portfolio/internal/content"
	"github.com/kydev/portfolio/internal/hero"
	"github.com/kydev/portfolio/internal/mail"
	"github.com/kydev/portfolio/internal/session"
	"github.com/kydev/portfolio/internal/view"
)

//go:embed static
var staticFS embed.FS

// Tracker records visits and preference switches. It is nil when analytics
// are disabled.
type Tracker interface {
	HashIP(ip string) string
	RecordVisit(ctx context.Context, v analytics.Visit) error
	RecordPreference(ctx context.Context, e analytics.PreferenceEvent) error
}

type Deps struct {
	Config   *config.Config
	Catalog  *content.Catalog
	Sessions *session.Registry
	Streamer *hero.Streamer
	Mailer   mail.Mailer
	Tracker  Tracker
	Admin    *admin.Handler
	Clock    clock.Clock
	Verbose  bool
}

type Server struct {
	cfg      *config.Config
	catalog  *content.Catalog
	sessions *session.Registry
	streamer *hero.Streamer
	mailer   mail.Mailer
	tracker  Tracker
	clk      clock.Clock
	limiter  *RateLimiter
	verbose  bool

	engine *gin.Engine
	bg     sync.WaitGroup
}

// New builds the engine and registers every route.
func New(d Deps) (*Server, error) {
	if d.Config == nil || d.Catalog == nil || d.Sessions == nil || d.Streamer == nil {
		return nil, errors.New("server: config, catalog, sessions and streamer are required")
	}
	if d.Clock == nil {
		d.Clock = clock.NewReal()
	}
	if d.Mailer == nil {
		d.Mailer = mail.Disabled{}
	}
	s := &Server{
		cfg:      d.Config,
		catalog:  d.Catalog,
		sessions: d.Sessions,
		streamer: d.Streamer,
		mailer:   d.Mailer,
		tracker:  d.Tracker,
		clk:      d.Clock,
		limiter:  NewRateLimiter(d.Config.Contact.Rate, d.Config.Contact.Window, d.Clock),
		verbose:  d.Verbose,
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if err := r.SetTrustedProxies(d.Config.Server.TrustedProxies); err != nil {
		return nil, errors.Wrap(err, "setting trusted proxies")
	}
	if err := s.loadTemplates(r); err != nil {
		return nil, err
	}
	if err := s.mountStatic(r); err != nil {
		return nil, err
	}

	if s.tracker != nil {
		r.Use(s.visitorTracking())
	}

	r.GET("/", s.index)
	r.GET("/s/:id", s.show)
	r.POST("/s/:id/locale", s.setLocale)
	r.POST("/s/:id/theme", s.setTheme)
	r.GET("/s/:id/hero", s.heroStream)
	r.POST("/contact", s.contact)
	r.GET("/privacy", s.privacy)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
	})
	if d.Admin != nil {
		d.Admin.Register(r)
	}
	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "Page not found", nil)
	})

	s.engine = r
	return s, nil
}

func (s *Server) loadTemplates(r *gin.Engine) error {
	if s.cfg.Server.Templates != "" {
		r.SetFuncMap(view.FuncMap())
		r.LoadHTMLGlob(s.cfg.Server.Templates)
		return nil
	}
	tmpl, err := view.Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)
	return nil
}

func (s *Server) mountStatic(r *gin.Engine) error {
	if s.cfg.Server.Static != "" {
		r.Static("/static", s.cfg.Server.Static)
		return nil
	}
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return errors.Wrap(err, "opening embedded static files")
	}
	r.StaticFS("/static", http.FS(sub))
	return nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on the configured port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Server.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	prune := time.NewTicker(time.Hour)
	defer prune.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-prune.C:
				if n := s.limiter.Prune(); n > 0 {
					s.debugf("pruned %d rate limit buckets", n)
				}
			}
		}
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "listening")
	case <-ctx.Done():
	}

	log.Println("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Hijacked WebSocket connections are not tracked by Shutdown; closing the
	// sessions ends their streams.
	s.sessions.Close()
	err := srv.Shutdown(shutdownCtx)
	s.bg.Wait()
	return errors.Wrap(err, "shutting down")
}

// Wait blocks until background recording has finished.
func (s *Server) Wait() { s.bg.Wait() }

// background runs fn off the request path.
func (s *Server) background(fn func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Server) debugf(format string, args ...any) {
	if s.verbose {
		log.Printf("[DEBUG] "+format, args...)
	}
}
