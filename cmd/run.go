package cmd

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/app"
	"github.com/abhisek/signiz/internal/content"
)

var errNoTerminal = errors.New("signiz needs an interactive terminal; try 'signiz lessons list' or 'signiz evaluate'")

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command, category content.Category, demo bool) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errNoTerminal
	}

	rt, err := openRuntime(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("starting tui", zap.String("category", string(category)), zap.Bool("demo", demo))
	return app.Run(app.Options{
		Catalog:       rt.catalog,
		Lesson:        rt.lessonDeps(cmd.Context(), demo),
		StartCategory: category,
		Logger:        rt.logger,
	})
}
