package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/signiz/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "signiz",
	Short: "Sign language tutor for kids",
	Long:  "Signiz walks children through sign language lessons, quizzes and camera tests graded by AI.",
	RunE: func(cmd *cobra.Command, args []string) error {
		demo, _ := cmd.Flags().GetBool("demo")
		return runApp(cmd, "", demo)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/signiz/config.toml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SIGNIZ_DB env var)")
	rootCmd.Flags().Bool("demo", false, "Use a simulated camera and grader")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then SIGNIZ_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
