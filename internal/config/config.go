package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// DefaultFile is read when no config path is given and ATTENDANCE_CONFIG is unset.
const DefaultFile = "attendance.yaml"

type Config struct {
	Faces    FacesConfig    `yaml:"faces"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Models   ModelsConfig   `yaml:"models"`
	Camera   CameraConfig   `yaml:"camera"`
	Matching MatchingConfig `yaml:"matching"`
	Web      WebConfig      `yaml:"web"`
	Log      LogConfig      `yaml:"log"`

	// Source is the config file that was applied, empty when only defaults and env were used.
	Source string `yaml:"-"`
}

type FacesConfig struct {
	Dir string `yaml:"dir"` // enrollment directory, one image per person
}

type LedgerConfig struct {
	Dir string `yaml:"dir"` // where the daily <YYYY-MM-DD>.csv logs are written
}

type ModelsConfig struct {
	Dir string `yaml:"dir"` // dlib model files
}

type CameraConfig struct {
	Device   int  `yaml:"device"`
	Headless bool `yaml:"headless"` // run without a display window
}

type MatchingConfig struct {
	Tolerance              float64 `yaml:"tolerance"`
	ScaleFactor            int     `yaml:"scale_factor"`
	ProcessEveryOtherFrame bool    `yaml:"process_every_other_frame"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port for the report server.
func (c WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the embedded defaults.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load builds the configuration from the embedded defaults, then the YAML file
// at path (or $ATTENDANCE_CONFIG, or ./attendance.yaml when present), then
// environment variables. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := true
	if path == "" {
		path = os.Getenv("ATTENDANCE_CONFIG")
	}
	if path == "" {
		path = DefaultFile
		explicit = false
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		cfg.Source = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Faces.Dir = envString("FACES_DIR", c.Faces.Dir)
	c.Ledger.Dir = envString("LEDGER_DIR", c.Ledger.Dir)
	c.Models.Dir = envString("MODELS_DIR", c.Models.Dir)
	c.Camera.Device = envInt("CAMERA_DEVICE", c.Camera.Device)
	c.Camera.Headless = envBool("HEADLESS", c.Camera.Headless)
	c.Matching.Tolerance = envFloat("MATCH_TOLERANCE", c.Matching.Tolerance)
	c.Matching.ScaleFactor = envInt("SCALE_FACTOR", c.Matching.ScaleFactor)
	c.Matching.ProcessEveryOtherFrame = envBool("PROCESS_EVERY_OTHER_FRAME", c.Matching.ProcessEveryOtherFrame)
	c.Web.Host = envString("WEB_HOST", c.Web.Host)
	c.Web.Port = envInt("WEB_PORT", c.Web.Port)
	c.Log.Level = envString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = envString("LOG_FORMAT", c.Log.Format)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Faces.Dir == "":
		return errors.New("faces directory must not be empty")
	case c.Ledger.Dir == "":
		return errors.New("ledger directory must not be empty")
	case c.Models.Dir == "":
		return errors.New("models directory must not be empty")
	case c.Camera.Device < 0:
		return fmt.Errorf("camera device must not be negative, got %d", c.Camera.Device)
	case !(c.Matching.Tolerance > 0):
		return fmt.Errorf("match tolerance must be positive, got %v", c.Matching.Tolerance)
	case c.Matching.ScaleFactor < 1:
		return fmt.Errorf("scale factor must be at least 1, got %d", c.Matching.ScaleFactor)
	case c.Web.Port < 1 || c.Web.Port > 65535:
		return fmt.Errorf("web port out of range: %d", c.Web.Port)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a non-negative integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	slog.Warn("ignoring invalid environment value", "key", key, "value", s)
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	slog.Warn("ignoring invalid environment value", "key", key, "value", s)
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	slog.Warn("ignoring invalid environment value", "key", key, "value", s)
	return defaultVal
}
