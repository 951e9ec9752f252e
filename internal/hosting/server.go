// Package hosting is the companion HTTP service: it stores uploaded clips
// and grades them so thin clients only need two endpoints.
package hosting

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/evaluation"
)

const (
	DefaultRequestTimeout = 240 * time.Second
	DefaultWriteTimeout   = 300 * time.Second
	DefaultMaxUpload      = 50 << 20
)

// Options tune the service.
type Options struct {
	Addr           string
	RequestTimeout time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
}

func (o Options) withDefaults() Options {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = DefaultMaxUpload
	}
	return o
}

// Server routes the upload, evaluate and media endpoints.
type Server struct {
	opts     Options
	media    *evaluation.LocalUploader
	pipeline *evaluation.Pipeline
	logger   *zap.Logger
	engine   *gin.Engine
}

// New builds the router. Clips are stored through media and graded with
// evaluator.
func New(media *evaluation.LocalUploader, evaluator evaluation.Evaluator, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		opts:  opts,
		media: media,
		pipeline: evaluation.NewPipeline(media, evaluator,
			evaluation.WithTimeouts(opts.RequestTimeout, opts.RequestTimeout),
			evaluation.WithLogger(logger)),
		logger: logger,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLogger(logger))
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		api.POST("/upload-video", s.uploadVideo)
		api.POST("/evaluate", s.evaluate)
	}
	s.engine.GET("/media/:id", s.serveMedia)
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("hosting service listening", zap.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("hosting service shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) uploadVideo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	fh, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No video file provided"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.uploadFailed(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.uploadFailed(c, err)
		return
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	s.logger.Debug("upload received", zap.Int("bytes", len(data)), zap.String("mime", mimeType))

	ref, err := s.pipeline.Upload(c.Request.Context(), data, mimeType)
	if err != nil {
		s.uploadFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"url":      ref.URL,
		"id":       ref.ID,
		"publicId": ref.ID,
	})
}

func (s *Server) uploadFailed(c *gin.Context, err error) {
	s.logger.Warn("upload failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload video"})
}

type evaluateRequest struct {
	VideoURL          string   `json:"videoUrl"`
	SignDescription   string   `json:"signDescription"`
	ReferenceVideoURL string   `json:"referenceVideoUrl"`
	ReferenceImages   []string `json:"referenceImages"`
}

func (r evaluateRequest) signContext() evaluation.SignContext {
	sign := strings.TrimSpace(r.SignDescription)
	if sign == "" {
		sign = "the sign shown in the reference"
	}
	return evaluation.SignContext{
		SignToPerform:     sign,
		Instructions:      "Perform " + sign + " clearly in front of the camera.",
		SignDescription:   r.SignDescription,
		ReferenceVideoURL: r.ReferenceVideoURL,
		ReferenceImages:   r.ReferenceImages,
	}
}

func (s *Server) evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.VideoURL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No video URL provided"})
		return
	}

	verdict, err := s.pipeline.Evaluate(c.Request.Context(), evaluation.MediaReference{URL: req.VideoURL}, req.signContext())
	if errors.Is(err, evaluation.ErrInvalidContext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reference media must be valid URLs"})
		return
	}
	if err != nil {
		s.logger.Warn("evaluation failed", zap.String("video", req.VideoURL), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to evaluate sign. Please try again."})
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (s *Server) serveMedia(c *gin.Context) {
	path, err := s.media.Open(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.File(path)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
