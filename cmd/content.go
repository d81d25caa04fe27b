package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kydev/portfolio/internal/content"
	"github.com/kydev/portfolio/internal/locale"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect the embedded content dictionaries",
}

var contentCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify every locale carries every section",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := content.Load()
		if err != nil {
			return fmt.Errorf("loading content: %w", err)
		}
		if err := cat.Check(); err != nil {
			return err
		}
		for _, l := range locale.All() {
			fmt.Printf("%s  %d sections ok\n", l.Upper(), len(content.Sections()))
		}
		return nil
	},
}

func init() {
	contentCmd.AddCommand(contentCheckCmd)
	rootCmd.AddCommand(contentCmd)
}
