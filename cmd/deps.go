package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/announce"
	"github.com/abhisek/signiz/internal/camera"
	"github.com/abhisek/signiz/internal/config"
	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/evaluation"
	"github.com/abhisek/signiz/internal/grading"
	"github.com/abhisek/signiz/internal/llm"
	"github.com/abhisek/signiz/internal/logging"
	"github.com/abhisek/signiz/internal/progress"
	"github.com/abhisek/signiz/internal/recorder"
	"github.com/abhisek/signiz/internal/screens/lesson"
	"github.com/abhisek/signiz/internal/screens/practical"
	"github.com/abhisek/signiz/internal/store"
)

// runtime bundles what every command opens: config, logger, store, lesson
// catalog and progress ledger.
type runtime struct {
	cfg     config.Config
	logger  *zap.Logger
	store   *store.Store
	catalog *content.Catalog
	ledger  *progress.Ledger

	closers []func()
}

// openRuntime loads configuration and opens the database. console mirrors
// log output to stderr; the TUI keeps it off.
func openRuntime(cmd *cobra.Command, console bool) (*runtime, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Console: console,
	})
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	catalog, err := content.Load(cfg.Content.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load lesson catalog: %w", err)
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		catalog: catalog,
		ledger:  progress.NewLedger(st.KVRepo(), progress.WithLogger(logger)),
	}
	rt.closers = append(rt.closers, func() { _ = st.Close() }, func() { _ = logger.Sync() })
	return rt, nil
}

// Close releases everything in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func (rt *runtime) restyClient() *resty.Client {
	return resty.New().
		SetTimeout(rt.cfg.Evaluation.Timeout).
		SetHeader("User-Agent", "signiz/"+version)
}

// evaluator builds the backend named in config. demo forces the simulated
// grader.
func (rt *runtime) evaluator(ctx context.Context, demo bool) (evaluation.Evaluator, error) {
	backend := rt.cfg.Evaluation.Backend
	if demo {
		backend = "simulated"
	}

	switch backend {
	case "simulated":
		return evaluation.NewSimulatedEvaluator(nil), nil
	case "http":
		return evaluation.NewHTTPEvaluator(rt.cfg.Evaluation.EvaluateURL, rt.restyClient()), nil
	case "llm", "text":
		provider, err := llm.NewProviderFromEnv(ctx, rt.store.EventRepo(), rt.logger)
		if err != nil {
			return nil, fmt.Errorf("%s evaluation backend: %w", backend, err)
		}
		if backend == "text" {
			return evaluation.NewTextEvaluator(provider, evaluation.DefaultLLMConfig()), nil
		}
		return evaluation.NewLLMEvaluator(provider, evaluation.DefaultLLMConfig()), nil
	}
	return nil, fmt.Errorf("unknown evaluation backend %q", backend)
}

// mediaStore is where clips are kept when they are not sent to a remote
// hosting service.
func (rt *runtime) mediaStore() (*evaluation.LocalUploader, error) {
	return evaluation.NewLocalUploader(rt.cfg.Evaluation.MediaDir, rt.cfg.Server.PublicURL)
}

func (rt *runtime) uploader(demo bool) (evaluation.Uploader, error) {
	if rt.cfg.Evaluation.Backend == "http" && !demo {
		return evaluation.NewHTTPUploader(rt.cfg.Evaluation.UploadURL, rt.restyClient()), nil
	}
	return rt.mediaStore()
}

func (rt *runtime) pipeline(ctx context.Context, demo bool) (*evaluation.Pipeline, error) {
	up, err := rt.uploader(demo)
	if err != nil {
		return nil, err
	}
	ev, err := rt.evaluator(ctx, demo)
	if err != nil {
		return nil, err
	}
	timeout := rt.cfg.Evaluation.Timeout
	return evaluation.NewPipeline(up, ev,
		evaluation.WithTimeouts(timeout, timeout),
		evaluation.WithLogger(rt.logger)), nil
}

func (rt *runtime) submitter(ctx context.Context, demo bool) (*recorder.PipelineSubmitter, error) {
	p, err := rt.pipeline(ctx, demo)
	if err != nil {
		return nil, err
	}
	pick := grading.RandomHint(rand.New(rand.NewSource(time.Now().UnixNano())))
	return recorder.NewPipelineSubmitter(p, rt.cfg.Grading.PassThreshold, pick, rt.store.EventRepo(), rt.logger), nil
}

func (rt *runtime) camera(demo bool) recorder.Camera {
	if demo {
		return camera.NewMockCamera()
	}
	lockDir := filepath.Join(filepath.Dir(rt.cfg.Evaluation.MediaDir), "locks")
	cam := camera.NewFFmpegCamera(lockDir, rt.logger)
	if err := cam.CheckFFmpeg(); err != nil {
		rt.logger.Warn("ffmpeg not available, camera tests will fail", zap.Error(err))
	}
	return cam
}

func (rt *runtime) announcer() announce.Announcer {
	if !rt.cfg.Speech.Enabled {
		return nil
	}
	sp, ok := announce.NewSpeaker(rt.cfg.Speech.Command, rt.logger)
	if !ok {
		rt.logger.Warn("speech enabled but no speech program found")
		return nil
	}
	rt.closers = append(rt.closers, sp.Stop)
	return sp
}

func (rt *runtime) recorderConfig() recorder.Config {
	rc := recorder.DefaultConfig()
	rc.CountdownStart = rt.cfg.Recorder.Countdown
	rc.MaxDuration = rt.cfg.Recorder.MaxDuration
	rc.Resolution = recorder.Resolution{Width: rt.cfg.Recorder.Width, Height: rt.cfg.Recorder.Height}
	rc.Device = rt.cfg.Recorder.Device
	return rc
}

// lessonDeps wires the screens' dependencies. Without an evaluator the
// lessons still run; camera tests then report a grading failure.
func (rt *runtime) lessonDeps(ctx context.Context, demo bool) lesson.Deps {
	deps := lesson.Deps{
		Ledger:    rt.ledger,
		Events:    rt.store.EventRepo(),
		AssetsURL: rt.cfg.Content.AssetsURL,
		Logger:    rt.logger,
		Practical: practical.Deps{
			Config:    rt.recorderConfig(),
			Camera:    rt.camera(demo),
			Announcer: rt.announcer(),
			Logger:    rt.logger,
		},
	}

	sub, err := rt.submitter(ctx, demo)
	if err != nil {
		rt.logger.Warn("grading unavailable", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Camera tests cannot be graded:", err)
		fmt.Fprintln(os.Stderr, "Set an LLM API key, or run with --demo.")
		deps.Practical.Submitter = unavailableSubmitter{err: err}
		return deps
	}
	deps.Practical.Submitter = sub
	return deps
}

// unavailableSubmitter fails every submission with the reason grading
// could not be set up.
type unavailableSubmitter struct {
	err error
}

func (u unavailableSubmitter) Submit(ctx context.Context, clip *recorder.Clip, sc evaluation.SignContext) (*recorder.Outcome, error) {
	return nil, &evaluation.SubmissionError{
		Stage:  evaluation.StageEvaluate,
		Reason: string(evaluation.EvaluationNetwork),
		Err:    u.err,
	}
}
