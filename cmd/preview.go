package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/kydev/portfolio/internal/content"
	"github.com/kydev/portfolio/internal/locale"
	"github.com/kydev/portfolio/internal/prefs"
	"github.com/kydev/portfolio/internal/preview"
)

var (
	previewLocale string
	previewTheme  string
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Run the hero banner in the terminal",
	Long: `Runs the typewriter and the particle network in the terminal.
Keys: t toggles the theme, l cycles the language, q or Esc quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		st := cfg.InitialState()
		if previewLocale != "" {
			if st.Locale, err = locale.Parse(previewLocale); err != nil {
				return err
			}
		}
		if previewTheme != "" {
			if st.Theme, err = prefs.ParseTheme(previewTheme); err != nil {
				return err
			}
		}

		cat, err := content.Load()
		if err != nil {
			return fmt.Errorf("loading content: %w", err)
		}

		screen, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		if err := screen.Init(); err != nil {
			return err
		}
		defer screen.Fini()
		// Log lines would tear the screen.
		log.SetOutput(io.Discard)
		defer log.SetOutput(os.Stderr)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		p := preview.New(screen, prefs.NewStore(st))
		return p.Run(ctx, heroOptions(cfg.Hero), func(l locale.Locale) []string {
			return cat.Get(l).Hero.Roles
		})
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewLocale, "locale", "", "language (id, en, ja)")
	previewCmd.Flags().StringVar(&previewTheme, "theme", "", "theme (light, dark)")
	rootCmd.AddCommand(previewCmd)
}
