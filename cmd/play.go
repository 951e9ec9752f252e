package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/signiz/internal/content"
)

var playCmd = &cobra.Command{
	Use:   "play <category>",
	Short: "Jump straight into a category",
	Long: `Open the tutor directly in one category, e.g. "signiz play family".

Categories: ` + categoryNames(),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		demo, _ := cmd.Flags().GetBool("demo")
		return runApp(cmd, content.ParseCategory(args[0]), demo)
	},
}

func categoryNames() string {
	var names []string
	for _, c := range content.Builtin().Categories() {
		names = append(names, strings.ToLower(string(c)))
	}
	return strings.Join(names, ", ")
}

func init() {
	playCmd.Flags().Bool("demo", false, "Use a simulated camera and grader")
}
