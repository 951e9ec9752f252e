// Package config loads signiz settings from a TOML file and SIGNIZ_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/abhisek/signiz/internal/store"
)

// Config holds all signiz configuration.
type Config struct {
	Recorder   RecorderConfig   `toml:"recorder"`
	Grading    GradingConfig    `toml:"grading"`
	Evaluation EvaluationConfig `toml:"evaluation"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Speech     SpeechConfig     `toml:"speech"`
	Content    ContentConfig    `toml:"content"`
}

type RecorderConfig struct {
	Countdown   int           `toml:"countdown" validate:"min=1,max=10"`
	MaxDuration time.Duration `toml:"max_duration" validate:"min=1s,max=60s"`
	Width       int           `toml:"width" validate:"min=160"`
	Height      int           `toml:"height" validate:"min=120"`
	Device      string        `toml:"device"`
}

type GradingConfig struct {
	PassThreshold float64 `toml:"pass_threshold" validate:"min=0,max=100"`
}

type EvaluationConfig struct {
	// Backend selects the evaluator: llm, http, text or simulated.
	Backend     string        `toml:"backend" validate:"oneof=llm http text simulated"`
	UploadURL   string        `toml:"upload_url" validate:"omitempty,url"`
	EvaluateURL string        `toml:"evaluate_url" validate:"omitempty,url"`
	Timeout     time.Duration `toml:"timeout" validate:"min=1s"`
	MediaDir    string        `toml:"media_dir" validate:"required"`
}

type ServerConfig struct {
	Addr           string        `toml:"addr" validate:"required,hostname_port"`
	PublicURL      string        `toml:"public_url" validate:"omitempty,url"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
	MaxUploadMB    int64         `toml:"max_upload_mb" validate:"min=1"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `toml:"format" validate:"omitempty,oneof=console json"`
	File   string `toml:"file"`
}

type SpeechConfig struct {
	Enabled bool   `toml:"enabled"`
	Command string `toml:"command"`
}

type ContentConfig struct {
	// Catalog replaces the built-in lesson catalog with a TOML file.
	Catalog string `toml:"catalog"`
	// AssetsURL is prefixed to relative lesson media paths.
	AssetsURL string `toml:"assets_url" validate:"omitempty,url"`
}

// DefaultConfig returns config with the product defaults.
func DefaultConfig() Config {
	data := dataDir()
	return Config{
		Recorder: RecorderConfig{
			Countdown:   3,
			MaxDuration: 15 * time.Second,
			Width:       640,
			Height:      480,
		},
		Grading: GradingConfig{PassThreshold: 70},
		Evaluation: EvaluationConfig{
			Backend:  "llm",
			Timeout:  240 * time.Second,
			MediaDir: filepath.Join(data, "media"),
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8787",
			RequestTimeout: 240 * time.Second,
			WriteTimeout:   300 * time.Second,
			MaxUploadMB:    50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   filepath.Join(data, "signiz.log"),
		},
	}
}

// Load reads the config file at path, or the first standard location when
// path is empty, then applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else {
		for _, p := range configPaths() {
			if _, err := os.Stat(p); err == nil {
				if _, err := toml.DecodeFile(p, &cfg); err != nil {
					return cfg, fmt.Errorf("parse config %s: %w", p, err)
				}
				break
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	cfg.Evaluation.MediaDir = expandHome(cfg.Evaluation.MediaDir)
	cfg.Log.File = expandHome(cfg.Log.File)
	cfg.Content.Catalog = expandHome(cfg.Content.Catalog)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if c.Recorder.MaxDuration%time.Second != 0 {
		return fmt.Errorf("config: recorder.max_duration must be whole seconds, got %s", c.Recorder.MaxDuration)
	}
	if c.Evaluation.Backend == "http" && (c.Evaluation.UploadURL == "" || c.Evaluation.EvaluateURL == "") {
		return errors.New("config: evaluation.upload_url and evaluation.evaluate_url are required for the http backend")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SIGNIZ_COUNTDOWN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SIGNIZ_COUNTDOWN: %w", err)
		}
		cfg.Recorder.Countdown = n
	}
	if v := os.Getenv("SIGNIZ_MAX_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SIGNIZ_MAX_DURATION: %w", err)
		}
		cfg.Recorder.MaxDuration = d
	}
	if v := os.Getenv("SIGNIZ_CAMERA_DEVICE"); v != "" {
		cfg.Recorder.Device = v
	}
	if v := os.Getenv("SIGNIZ_PASS_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SIGNIZ_PASS_THRESHOLD: %w", err)
		}
		cfg.Grading.PassThreshold = f
	}
	if v := os.Getenv("SIGNIZ_EVAL_BACKEND"); v != "" {
		cfg.Evaluation.Backend = v
	}
	if v := os.Getenv("SIGNIZ_UPLOAD_URL"); v != "" {
		cfg.Evaluation.UploadURL = v
	}
	if v := os.Getenv("SIGNIZ_EVALUATE_URL"); v != "" {
		cfg.Evaluation.EvaluateURL = v
	}
	if v := os.Getenv("SIGNIZ_MEDIA_DIR"); v != "" {
		cfg.Evaluation.MediaDir = v
	}
	if v := os.Getenv("SIGNIZ_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SIGNIZ_PUBLIC_URL"); v != "" {
		cfg.Server.PublicURL = v
	}
	if v := os.Getenv("SIGNIZ_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SIGNIZ_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("SIGNIZ_CATALOG"); v != "" {
		cfg.Content.Catalog = v
	}
	if v := os.Getenv("SIGNIZ_ASSETS_URL"); v != "" {
		cfg.Content.AssetsURL = v
	}
	if v := os.Getenv("SIGNIZ_SPEECH"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SIGNIZ_SPEECH: %w", err)
		}
		cfg.Speech.Enabled = on
	}
	return nil
}

// dataDir falls back to a relative directory when no home is known.
func dataDir() string {
	dir, err := store.DataHome()
	if err != nil {
		return ".signiz"
	}
	return dir
}

func configPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "signiz", "config.toml"))
	}
	if home, _ := os.UserHomeDir(); home != "" {
		paths = append(paths, filepath.Join(home, ".config", "signiz", "config.toml"))
	}
	return paths
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
