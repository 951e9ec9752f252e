package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/signiz/internal/evaluation"
	"github.com/abhisek/signiz/internal/hosting"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the video hosting and evaluation service",
	Long: `Serve the upload, evaluate and media endpoints used by the http evaluation
backend. Stored clips older than --retain are pruned periodically.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().Duration("retain", 24*time.Hour, "Delete stored clips older than this; 0 keeps them")
	serveCmd.Flags().Bool("demo", false, "Grade with the simulated evaluator")
}

func runServe(cmd *cobra.Command, args []string) error {
	retain, _ := cmd.Flags().GetDuration("retain")
	demo, _ := cmd.Flags().GetBool("demo")

	rt, err := openRuntime(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		rt.cfg.Server.Addr = addr
	}
	if rt.cfg.Server.PublicURL == "" {
		rt.cfg.Server.PublicURL = "http://" + rt.cfg.Server.Addr
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	media, err := rt.mediaStore()
	if err != nil {
		return err
	}
	// The service grades with its own backend, never by calling itself.
	if rt.cfg.Evaluation.Backend == "http" && !demo {
		return fmt.Errorf("serve needs an llm, text or simulated evaluation backend")
	}
	evaluator, err := rt.evaluator(ctx, demo)
	if err != nil {
		return err
	}

	srv := hosting.New(media, evaluator, hosting.Options{
		Addr:           rt.cfg.Server.Addr,
		RequestTimeout: rt.cfg.Server.RequestTimeout,
		WriteTimeout:   rt.cfg.Server.WriteTimeout,
		MaxUploadBytes: rt.cfg.Server.MaxUploadMB << 20,
	}, rt.logger)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gCtx)
	})
	if retain > 0 {
		g.Go(func() error {
			pruneLoop(gCtx, media, retain, rt.logger)
			return nil
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s (media at %s/media/<id>)\n", rt.cfg.Server.Addr, rt.cfg.Server.PublicURL)
	return g.Wait()
}

// pruneLoop removes clips older than retain every retain/4, but no more
// often than once a minute, until ctx is done.
func pruneLoop(ctx context.Context, media *evaluation.LocalUploader, retain time.Duration, logger *zap.Logger) {
	every := max(retain/4, time.Minute)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		n, err := media.Prune(time.Now().Add(-retain))
		switch {
		case err != nil:
			logger.Warn("media prune failed", zap.Error(err))
		case n > 0:
			logger.Info("pruned stored clips", zap.Int("count", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
