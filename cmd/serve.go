package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/kydev/portfolio/internal/admin"
	"github.com/kydev/portfolio/internal/analytics"
	"github.com/kydev/portfolio/internal/clock"
	"github.com/kydev/portfolio/internal/content"
	"github.com/kydev/portfolio/internal/hero"
	"github.com/kydev/portfolio/internal/locale"
	"github.com/kydev/portfolio/internal/mail"
	"github.com/kydev/portfolio/internal/server"
	"github.com/kydev/portfolio/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if cfg.Server.Release && !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cat, err := content.Load()
		if err != nil {
			return fmt.Errorf("loading content: %w", err)
		}
		if err := cat.Check(); err != nil {
			return err
		}

		clk := clock.NewReal()
		sessions := session.NewRegistry(clk, cfg.Session.TTL,
			session.WithUnusedTTL(cfg.Session.UnusedTTL),
			session.WithMaxSessions(cfg.Session.Max))
		sessions.StartSweeper(time.Minute)
		defer sessions.Close()

		opts := heroOptions(cfg.Hero)
		opts.Clock = clk
		streamer := hero.NewStreamer(opts, func(l locale.Locale) []string {
			return cat.Get(l).Hero.Roles
		})

		mailer, err := mail.New(ctx, cfg.Mail, verbose)
		if err != nil {
			return fmt.Errorf("setting up mail: %w", err)
		}

		deps := server.Deps{
			Config:   cfg,
			Catalog:  cat,
			Sessions: sessions,
			Streamer: streamer,
			Mailer:   mailer,
			Clock:    clk,
			Verbose:  verbose,
		}

		if cfg.Analytics.Enabled {
			store, err := analytics.Open(cfg.Analytics.Path)
			if err != nil {
				return fmt.Errorf("opening analytics store: %w", err)
			}
			defer store.Close()

			if n, err := store.Cleanup(ctx, cfg.Analytics.Retention); err != nil {
				log.Printf("analytics: cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("analytics: removed %d records older than %s", n, cfg.Analytics.Retention)
			}

			deps.Tracker = store
			deps.Admin, err = admin.New(cfg.Admin, store, cfg.Analytics.Retention)
			if err != nil {
				return fmt.Errorf("setting up admin: %w", err)
			}
		} else {
			log.Println("analytics: disabled, admin dashboard not mounted")
		}

		srv, err := server.New(deps)
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
