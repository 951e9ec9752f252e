package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/progress"
	"github.com/abhisek/signiz/internal/store"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show, reset, back up or restore learner progress",
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show completion and test scores per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		all, err := rt.ledger.All(cmd.Context())
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		renderTable(cmd.OutOrStdout(),
			[]string{"Category", "Done", "Next item", "Tests passed", "Last played"},
			progressRows(rt.catalog, all),
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft})

		recent, _ := cmd.Flags().GetInt("recent")
		if recent <= 0 {
			return nil
		}
		subs, err := rt.store.EventRepo().QuerySubmissions(cmd.Context(), "", store.QueryOpts{Limit: recent})
		if err != nil {
			return fmt.Errorf("query submissions: %w", err)
		}
		if len(subs) == 0 {
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\nRecent signing attempts")
		renderTable(cmd.OutOrStdout(),
			[]string{"When", "Category", "Sign", "Score", "Result"},
			submissionRows(subs),
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
		return nil
	},
}

func submissionRows(subs []store.SubmissionEvent) [][]string {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		result := "passed"
		switch {
		case s.Stage != "":
			result = s.Stage + " failed: " + s.Reason
		case !s.Passed:
			result = "try again"
		}
		score := "-"
		if s.Stage == "" {
			score = strconv.Itoa(int(s.Score))
		}
		rows = append(rows, []string{
			s.Timestamp.Local().Format("01-02 15:04"),
			content.ParseCategory(s.Category).Title(),
			s.Sign,
			score,
			result,
		})
	}
	return rows
}

func progressRows(catalog *content.Catalog, all map[string]progress.CategoryProgress) [][]string {
	var rows [][]string
	for _, sec := range catalog.Sections() {
		p, ok := all[string(sec.Name)]
		if !ok {
			rows = append(rows, []string{sec.Name.Title(), "0%", "1", "-", "never"})
			continue
		}

		tests, passed := 0, 0
		for _, it := range sec.Items {
			if !it.IsTest() {
				continue
			}
			tests++
			if s, ok := p.Score(it.ID); ok && s.Passed {
				passed++
			}
		}
		next := "done"
		if p.LastCompletedIndex < len(sec.Items)-1 {
			next = strconv.Itoa(p.LastCompletedIndex + 2)
		}
		rows = append(rows, []string{
			sec.Name.Title(),
			fmt.Sprintf("%d%%", p.CompletionPercentage),
			next,
			fmt.Sprintf("%d/%d", passed, tests),
			p.LastAccessedDate.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

var progressResetCmd = &cobra.Command{
	Use:   "reset [category]",
	Short: "Forget progress for one category, or everything",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		what := "all progress"
		if len(args) == 1 {
			what = "progress in " + content.ParseCategory(args[0]).Title()
		}
		if !yes && !confirm(cmd, fmt.Sprintf("Delete %s? Type yes to confirm: ", what)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing changed.")
			return nil
		}

		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if len(args) == 1 {
			cat := content.ParseCategory(args[0])
			if _, err := rt.catalog.Section(cat); err != nil {
				return err
			}
			err = rt.ledger.Reset(cmd.Context(), string(cat))
		} else {
			err = rt.ledger.ResetAll(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("reset progress: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", what)
		return nil
	},
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(line), "yes")
}

var progressExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write a compressed backup of all progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := store.EnsureDir(args[0]); err != nil {
			return err
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := rt.ledger.Export(cmd.Context(), f); err != nil {
			f.Close()
			return fmt.Errorf("export progress: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Progress saved to %s\n", args[0])
		return nil
	},
}

var progressImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all progress with a backup made by export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		n, err := rt.ledger.Import(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("import progress: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored progress for %d categories.\n", n)
		return nil
	},
}

func init() {
	progressShowCmd.Flags().IntP("recent", "n", 5, "Also list this many recent signing attempts")
	progressResetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressResetCmd)
	progressCmd.AddCommand(progressExportCmd)
	progressCmd.AddCommand(progressImportCmd)
}
