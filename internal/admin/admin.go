// Package admin serves the password-protected analytics dashboard.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/kydev/portfolio/internal/analytics"
	"github.com/kydev/portfolio/internal/config"
)

const (
	cookieName = "admin_token"
	cookiePath = "/admin"
	tokenTTL   = 24 * time.Hour
	issuer     = "portfolio-admin"
)

// ErrInvalidToken is returned by Verify for missing, expired or forged tokens.
var ErrInvalidToken = errors.New("invalid admin token")

// StatsSource is the analytics store as the dashboard uses it.
type StatsSource interface {
	Stats(ctx context.Context) (*analytics.Stats, error)
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
	HashIP(ip string) string
}

type Handler struct {
	username     string
	passwordHash []byte
	secret       []byte
	stats        StatsSource
	retention    time.Duration
	now          func() time.Time
}

// New builds the admin handler. Without a configured password hash a random
// password is generated; without a secret tokens are signed with a random
// per-process key, so restarts log everyone out.
func New(cfg config.AdminConfig, stats StatsSource, retention time.Duration) (*Handler, error) {
	h := &Handler{
		username:  cfg.Username,
		stats:     stats,
		retention: retention,
		now:       time.Now,
	}

	if cfg.PasswordHash == "" {
		pw, err := randomHex(12)
		if err != nil {
			return nil, err
		}
		hash, err := HashPassword(pw)
		if err != nil {
			return nil, err
		}
		h.passwordHash = []byte(hash)
		log.Println("admin: no password hash configured, generated a one-time password")
		if gin.Mode() == gin.DebugMode {
			log.Printf("admin: password (dev only): %s", pw)
		}
	} else {
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, errors.Wrap(err, "admin.password_hash is not a bcrypt hash")
		}
		h.passwordHash = []byte(cfg.PasswordHash)
	}

	if cfg.Secret == "" {
		s, err := randomHex(32)
		if err != nil {
			return nil, err
		}
		h.secret = []byte(s)
	} else {
		h.secret = []byte(cfg.Secret)
	}
	return h, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generating random bytes")
	}
	return hex.EncodeToString(b), nil
}

// HashPassword returns a bcrypt hash suitable for admin.password_hash.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	return string(hash), nil
}

// CheckCredentials reports whether username and password match. The bcrypt
// comparison runs even for a wrong username.
func (h *Handler) CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(password)) == nil
	return userOK && passOK
}

// IssueToken signs a session token for the admin user.
func (h *Handler) IssueToken() (string, error) {
	now := h.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   h.username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing admin token")
	}
	return signed, nil
}

// Verify checks a token's signature, issuer, subject and expiry.
func (h *Handler) Verify(token string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(h.username),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.now),
	)
	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return h.secret, nil
	})
	if err != nil || !parsed.Valid {
		return errors.Wrap(ErrInvalidToken, errString(err))
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return "token not valid"
	}
	return err.Error()
}

// Middleware redirects requests without a valid token to the login page.
func (h *Handler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || h.Verify(token) != nil {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Register mounts the admin routes on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin_login.html", gin.H{"title": "Admin Login"})
	})
	r.POST("/admin/login", h.login)
	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(cookieName, "", -1, cookiePath, "", c.Request.TLS != nil, true)
		log.Printf("admin: logout from %s", h.visitor(c))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	g := r.Group("/admin")
	g.Use(h.Middleware())
	g.GET("", func(c *gin.Context) { c.Redirect(http.StatusFound, "/admin/dashboard") })
	g.GET("/dashboard", h.dashboard)
	g.GET("/api/stats", h.apiStats)
	g.GET("/export/stats", h.export)
	g.POST("/privacy/cleanup", h.cleanup)
}

func (h *Handler) visitor(c *gin.Context) string {
	if h.stats == nil {
		return "unknown"
	}
	return h.stats.HashIP(c.ClientIP())
}

func (h *Handler) login(c *gin.Context) {
	if !h.CheckCredentials(c.PostForm("username"), c.PostForm("password")) {
		log.Printf("admin: failed login attempt from %s", h.visitor(c))
		c.HTML(http.StatusUnauthorized, "admin_login.html", gin.H{"error": "Invalid credentials"})
		return
	}
	token, err := h.IssueToken()
	if err != nil {
		log.Printf("admin: %v", err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"status": http.StatusInternalServerError, "error": "Login failed"})
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cookieName, token, int(tokenTTL/time.Second), cookiePath, "", c.Request.TLS != nil, true)
	log.Printf("admin: login successful from %s", h.visitor(c))
	c.Redirect(http.StatusFound, "/admin/dashboard")
}

func (h *Handler) loadStats(c *gin.Context) (*analytics.Stats, error) {
	if h.stats == nil {
		return nil, errors.New("analytics disabled")
	}
	return h.stats.Stats(c.Request.Context())
}

func (h *Handler) dashboard(c *gin.Context) {
	stats, err := h.loadStats(c)
	if err != nil {
		log.Printf("admin: loading stats: %v", err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"status": http.StatusInternalServerError, "error": "Failed to load statistics"})
		return
	}
	c.HTML(http.StatusOK, "admin_dashboard.html", gin.H{"stats": stats})
}

func (h *Handler) apiStats(c *gin.Context) {
	stats, err := h.loadStats(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) export(c *gin.Context) {
	stats, err := h.loadStats(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=portfolio-stats-"+h.now().Format("2006-01-02")+".json")
	log.Printf("admin: stats exported by %s", h.visitor(c))
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) cleanup(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics disabled"})
		return
	}
	n, err := h.stats.Cleanup(c.Request.Context(), h.retention)
	if err != nil {
		log.Printf("admin: privacy cleanup: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
		return
	}
	log.Printf("admin: privacy cleanup removed %d records", n)
	if c.GetHeader("Accept") == "application/json" {
		c.JSON(http.StatusOK, gin.H{"removed": n})
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/dashboard")
}
