package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/kydev/portfolio/internal/config"
	"github.com/kydev/portfolio/internal/hero"
	"github.com/kydev/portfolio/internal/typewriter"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Multi-language personal portfolio site",
	Long: `Portfolio serves a single-page personal portfolio in Indonesian, English
and Japanese with a light and a dark theme. The hero banner's typewriter and
particle network run on the server and stream to the page.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "portfolio.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads and validates the config file named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if verbose {
		log.Printf("[DEBUG] config loaded from %s", cfgFile)
	}
	return cfg, nil
}

func heroOptions(cfg config.HeroConfig) hero.Options {
	return hero.Options{
		Timing: typewriter.Timing{
			Type:   cfg.Typing,
			Delete: cfg.Deleting,
			Dwell:  cfg.Dwell,
			Rest:   cfg.Rest,
		},
		FrameInterval: cfg.FrameInterval,
	}
}
