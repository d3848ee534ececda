package engine

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application settings read from the environment at
// startup.
type Config struct {
	LogLevel     string
	WindowTitle  string
	WindowWidth  uint32
	WindowHeight uint32
	ShaderDir    string
}

const (
	defaultLogLevel     = "info"
	defaultWindowTitle  = "Trigon"
	defaultWindowWidth  = 800
	defaultWindowHeight = 600
	defaultShaderDir    = "shaders"
)

// LoadConfig reads the .env file at the given path and resolves the
// configuration from the environment. A missing or unparseable file is an
// error; callers are expected to treat it as fatal. Individual keys that
// are absent fall back to their defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	cfg := &Config{
		LogLevel:     envOrDefault("LOG_LEVEL", defaultLogLevel),
		WindowTitle:  envOrDefault("WINDOW_TITLE", defaultWindowTitle),
		WindowWidth:  defaultWindowWidth,
		WindowHeight: defaultWindowHeight,
		ShaderDir:    envOrDefault("SHADER_DIR", defaultShaderDir),
	}

	w, err := envOrDefaultUint32("WINDOW_WIDTH", defaultWindowWidth)
	if err != nil {
		return nil, err
	}
	cfg.WindowWidth = w

	h, err := envOrDefaultUint32("WINDOW_HEIGHT", defaultWindowHeight)
	if err != nil {
		return nil, err
	}
	cfg.WindowHeight = h

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultUint32(key string, fallback uint32) (uint32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, v)
	}
	if parsed == 0 {
		return 0, fmt.Errorf("%s must be greater than zero", key)
	}
	return uint32(parsed), nil
}
