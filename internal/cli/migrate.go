package cli

import (
	"github.com/sangkips/gst-billing/internal/app"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			return a.Migrate()
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
