package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/recorder"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [clip]",
	Short: "Grade a recorded clip against a practical test",
	Long: `Send a clip through the upload and evaluation pipeline and print the verdict.

With --watch, every clip dropped into the directory is graded and a
<clip>.verdict.json report is written next to it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().String("category", "family", "Category of the practical test")
	evaluateCmd.Flags().Int("lesson", 0, "Lesson id of the practical test (default: first in category)")
	evaluateCmd.Flags().String("watch", "", "Grade clips as they appear in this directory")
	evaluateCmd.Flags().Bool("json", false, "Print the report as JSON")
	evaluateCmd.Flags().Bool("demo", false, "Use the simulated grader")
}

// clipTypes maps accepted clip extensions to MIME types.
var clipTypes = map[string]string{
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
}

func clipMIME(path string) (string, bool) {
	mt, ok := clipTypes[strings.ToLower(filepath.Ext(path))]
	return mt, ok
}

// report is the printable result of grading one clip.
type report struct {
	Clip          string   `json:"clip"`
	Sign          string   `json:"sign"`
	AttemptID     string   `json:"attemptId,omitempty"`
	Score         float64  `json:"score"`
	Passed        bool     `json:"passed"`
	Hint          string   `json:"hint,omitempty"`
	HandShape     string   `json:"handShape,omitempty"`
	Movement      string   `json:"movement,omitempty"`
	Feedback      string   `json:"feedback,omitempty"`
	Encouragement string   `json:"encouragement,omitempty"`
	Strengths     []string `json:"strengths,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	watchDir, _ := cmd.Flags().GetString("watch")
	if (len(args) == 0) == (watchDir == "") {
		return fmt.Errorf("give either a clip or --watch <dir>")
	}
	category, _ := cmd.Flags().GetString("category")
	lessonID, _ := cmd.Flags().GetInt("lesson")
	asJSON, _ := cmd.Flags().GetBool("json")
	demo, _ := cmd.Flags().GetBool("demo")

	rt, err := openRuntime(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	test, err := findPractical(rt.catalog, category, lessonID, rt.cfg.Content.AssetsURL)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sub, err := rt.submitter(ctx, demo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if watchDir == "" {
		rep := gradeFile(ctx, sub, test, args[0])
		printReport(out, rep, asJSON)
		if rep.Error != "" {
			return fmt.Errorf("grading %s failed", args[0])
		}
		return nil
	}

	fmt.Fprintf(out, "Watching %s for %s clips. Press Ctrl+C to stop.\n", watchDir, test.Sign)
	return watchInbox(ctx, watchDir, rt.logger, func(path string) {
		rep := gradeFile(ctx, sub, test, path)
		status := "passed"
		switch {
		case rep.Error != "":
			status = "error: " + rep.Error
		case !rep.Passed:
			status = "try again"
		}
		fmt.Fprintf(out, "%s  %s  %.0f  %s\n", filepath.Base(path), rep.Sign, rep.Score, status)
		if err := writeReport(path+".verdict.json", rep); err != nil {
			rt.logger.Warn("failed to write report", zap.String("clip", path), zap.Error(err))
		}
	})
}

// findPractical picks the practical test with lessonID in category, or the
// first one when lessonID is zero.
func findPractical(catalog *content.Catalog, category string, lessonID int, assetsURL string) (content.Practical, error) {
	section, err := catalog.Section(content.ParseCategory(category))
	if err != nil {
		return content.Practical{}, err
	}
	for _, it := range section.Items {
		if it.Kind != content.KindPractical || (lessonID != 0 && it.ID != lessonID) {
			continue
		}
		p, _ := it.Practical(section.Name, assetsURL)
		return p, nil
	}
	if lessonID != 0 {
		return content.Practical{}, fmt.Errorf("%s has no practical test with lesson id %d", section.Name.Title(), lessonID)
	}
	return content.Practical{}, fmt.Errorf("%s has no practical test", section.Name.Title())
}

func gradeFile(ctx context.Context, sub recorder.Submitter, test content.Practical, path string) report {
	rep := report{Clip: path, Sign: test.Sign}

	mimeType, ok := clipMIME(path)
	if !ok {
		rep.Error = "not a video clip"
		return rep
	}
	data, err := os.ReadFile(path)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	info, err := os.Stat(path)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}

	out, err := sub.Submit(ctx, recorder.NewClip(data, mimeType, 0, info.ModTime()), test.SignContext())
	if err != nil {
		rep.Error = recorder.UserMessage(err)
		return rep
	}

	rep.AttemptID = out.AttemptID
	rep.Score = out.Grade.Score
	rep.Passed = out.Grade.Passed
	rep.Hint = out.Grade.Hint
	rep.HandShape = string(out.Verdict.HandShapeDetected)
	rep.Movement = string(out.Verdict.MovementPatternDetected)
	rep.Feedback = out.Verdict.CriticalFeedback
	rep.Encouragement = out.Verdict.Encouragement
	rep.Strengths = out.Verdict.Strengths
	return rep
}

func printReport(w io.Writer, rep report, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
		return
	}
	if rep.Error != "" {
		fmt.Fprintf(w, "%s: %s\n", rep.Clip, rep.Error)
		return
	}

	result := "Passed"
	if !rep.Passed {
		result = "Try again"
	}
	rows := [][]string{
		{"Sign", rep.Sign},
		{"Score", fmt.Sprintf("%.0f", rep.Score)},
		{"Result", result},
		{"Hand shape", rep.HandShape},
		{"Movement", rep.Movement},
	}
	if rep.Hint != "" {
		rows = append(rows, []string{"Hint", rep.Hint})
	}
	if rep.Feedback != "" {
		rows = append(rows, []string{"Feedback", rep.Feedback})
	}
	if len(rep.Strengths) > 0 {
		rows = append(rows, []string{"Strengths", strings.Join(rep.Strengths, "; ")})
	}
	if rep.Encouragement != "" {
		rows = append(rows, []string{"", rep.Encouragement})
	}
	renderTable(w, []string{"", filepath.Base(rep.Clip)}, rows, nil)
}

func writeReport(path string, rep report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// settleDelay is how long a clip must stay unchanged before it is graded.
var settleDelay = 750 * time.Millisecond

// watchInbox calls handle once for each clip created in dir, after writes to
// it have settled. It returns when ctx is done.
func watchInbox(ctx context.Context, dir string, logger *zap.Logger, handle func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	pending := make(map[string]*time.Timer)
	ready := make(chan string)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, isClip := clipMIME(ev.Name); !isClip || !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if t, ok := pending[ev.Name]; ok {
				// A timer that already fired is delivering on ready.
				if t.Stop() {
					t.Reset(settleDelay)
				}
				continue
			}
			name := ev.Name
			pending[name] = time.AfterFunc(settleDelay, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})

		case name := <-ready:
			delete(pending, name)
			handle(name)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("inbox watch error", zap.Error(err))
		}
	}
}
