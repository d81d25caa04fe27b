// Package config loads server settings from defaults, an optional YAML file
// and PORTFOLIO_* environment variables, in that order.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/kydev/portfolio/internal/locale"
	"github.com/kydev/portfolio/internal/prefs"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: PORTFOLIO_MAIL__SMTP__HOST -> mail.smtp.host.
const EnvPrefix = "PORTFOLIO_"

type Config struct {
	Server    ServerConfig    `koanf:"server" yaml:"server"`
	Site      SiteConfig      `koanf:"site" yaml:"site"`
	Session   SessionConfig   `koanf:"session" yaml:"session"`
	Hero      HeroConfig      `koanf:"hero" yaml:"hero"`
	Analytics AnalyticsConfig `koanf:"analytics" yaml:"analytics"`
	Mail      MailConfig      `koanf:"mail" yaml:"mail"`
	Admin     AdminConfig     `koanf:"admin" yaml:"admin"`
	Contact   ContactConfig   `koanf:"contact" yaml:"contact"`
}

type ServerConfig struct {
	Port           int      `koanf:"port" yaml:"port"`
	Templates      string   `koanf:"templates" yaml:"templates,omitempty"` // glob; empty uses embedded templates
	Static         string   `koanf:"static" yaml:"static,omitempty"`       // directory; empty uses embedded assets
	TrustedProxies []string `koanf:"trusted_proxies" yaml:"trusted_proxies,omitempty"`
	Release        bool     `koanf:"release" yaml:"release"`
}

type SiteConfig struct {
	DefaultLocale      string `koanf:"default_locale" yaml:"default_locale"`
	DefaultTheme       string `koanf:"default_theme" yaml:"default_theme"`
	NegotiateLocale    bool   `koanf:"negotiate_locale" yaml:"negotiate_locale"`
	PersistPreferences bool   `koanf:"persist_preferences" yaml:"persist_preferences"`
}

type SessionConfig struct {
	TTL time.Duration `koanf:"ttl" yaml:"ttl"`
	// UnusedTTL expires views that never made a second request or opened
	// the hero stream, such as crawler hits.
	UnusedTTL time.Duration `koanf:"unused_ttl" yaml:"unused_ttl"`
	Max       int           `koanf:"max" yaml:"max"` // 0 means unlimited
}

type HeroConfig struct {
	FrameInterval time.Duration `koanf:"frame_interval" yaml:"frame_interval"`
	Typing        time.Duration `koanf:"typing" yaml:"typing"`
	Deleting      time.Duration `koanf:"deleting" yaml:"deleting"`
	Dwell         time.Duration `koanf:"dwell" yaml:"dwell"`
	Rest          time.Duration `koanf:"rest" yaml:"rest"`
}

type AnalyticsConfig struct {
	Enabled   bool          `koanf:"enabled" yaml:"enabled"`
	Path      string        `koanf:"path" yaml:"path"`
	Retention time.Duration `koanf:"retention" yaml:"retention"`
}

type SMTPConfig struct {
	Host     string `koanf:"host" yaml:"host"`
	Port     string `koanf:"port" yaml:"port"`
	User     string `koanf:"user" yaml:"user"`
	Password string `koanf:"password" yaml:"-"`
}

type SESConfig struct {
	Region string `koanf:"region" yaml:"region"`
}

// MailProvider selects how contact messages are delivered.
type MailProvider string

const (
	MailNone MailProvider = "none"
	MailSMTP MailProvider = "smtp"
	MailSES  MailProvider = "ses"
)

type MailConfig struct {
	Provider MailProvider `koanf:"provider" yaml:"provider"`
	From     string       `koanf:"from" yaml:"from"`
	To       string       `koanf:"to" yaml:"to"`
	SMTP     SMTPConfig   `koanf:"smtp" yaml:"smtp"`
	SES      SESConfig    `koanf:"ses" yaml:"ses"`
}

type AdminConfig struct {
	Username     string `koanf:"username" yaml:"username"`
	PasswordHash string `koanf:"password_hash" yaml:"password_hash,omitempty"`
	Secret       string `koanf:"secret" yaml:"-"`
}

type ContactConfig struct {
	Rate   int           `koanf:"rate" yaml:"rate"`
	Window time.Duration `koanf:"window" yaml:"window"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Site: SiteConfig{
			DefaultLocale: string(locale.Default),
			DefaultTheme:  prefs.Light.String(),
		},
		Session: SessionConfig{TTL: 30 * time.Minute, UnusedTTL: 2 * time.Minute, Max: 10000},
		Hero: HeroConfig{
			FrameInterval: 33 * time.Millisecond,
			Typing:        80 * time.Millisecond,
			Deleting:      40 * time.Millisecond,
			Dwell:         1800 * time.Millisecond,
		},
		Analytics: AnalyticsConfig{
			Enabled:   true,
			Path:      "data/portfolio.db",
			Retention: 365 * 24 * time.Hour,
		},
		Mail: MailConfig{
			Provider: MailNone,
			SMTP:     SMTPConfig{Host: "smtp.gmail.com", Port: "587"},
			SES:      SESConfig{Region: "us-east-1"},
		},
		Admin:   AdminConfig{Username: "admin"},
		Contact: ContactConfig{Rate: 5, Window: time.Hour},
	}
}

// Load reads the YAML file at path if it exists, then overlays environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "reading config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "accessing config %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, "loading env overrides")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	return cfg, nil
}

// Save writes the configuration as YAML. Secrets are omitted.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing config to %s", path)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := locale.Parse(c.Site.DefaultLocale); err != nil {
		return errors.Wrap(err, "site.default_locale")
	}
	if _, err := prefs.ParseTheme(c.Site.DefaultTheme); err != nil {
		return errors.Wrap(err, "site.default_theme")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Session.UnusedTTL <= 0 || c.Session.UnusedTTL > c.Session.TTL {
		return errors.New("session.unused_ttl must be positive and at most session.ttl")
	}
	if c.Session.Max < 0 {
		return errors.New("session.max must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"hero.frame_interval": c.Hero.FrameInterval,
		"hero.typing":         c.Hero.Typing,
		"hero.deleting":       c.Hero.Deleting,
	} {
		if d <= 0 {
			return errors.Errorf("%s must be positive", name)
		}
	}
	if c.Hero.Dwell < 0 || c.Hero.Rest < 0 {
		return errors.New("hero.dwell and hero.rest must be non-negative")
	}
	switch c.Mail.Provider {
	case MailNone:
	case MailSMTP:
		if c.Mail.To == "" {
			return errors.New("mail.to is required for smtp")
		}
	case MailSES:
		if c.Mail.From == "" || c.Mail.To == "" {
			return errors.New("mail.from and mail.to are required for ses")
		}
	default:
		return errors.Errorf("invalid mail.provider %q: must be one of none, smtp, ses", c.Mail.Provider)
	}
	if c.Analytics.Enabled && c.Analytics.Path == "" {
		return errors.New("analytics.path is required when analytics is enabled")
	}
	if c.Contact.Rate <= 0 || c.Contact.Window <= 0 {
		return errors.New("contact.rate and contact.window must be positive")
	}
	return nil
}

// InitialState is the Locale/Theme a fresh view starts with.
func (c *Config) InitialState() prefs.State {
	st := prefs.Default()
	if l, err := locale.Parse(c.Site.DefaultLocale); err == nil {
		st.Locale = l
	}
	if t, err := prefs.ParseTheme(c.Site.DefaultTheme); err == nil {
		st.Theme = t
	}
	return st
}
