package engine

import (
	"os"
	"path/filepath"
	"testing"
)

var configKeys = []string{"LOG_LEVEL", "WINDOW_TITLE", "WINDOW_WIDTH", "WINDOW_HEIGHT", "SHADER_DIR"}

// godotenv never overrides variables already present in the environment,
// so each test starts from a clean slate.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		if err := os.Unsetenv(key); err != nil {
			t.Fatal(err)
		}
	}
}

func writeEnvFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFileIsError(t *testing.T) {
	clearConfigEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), ".env")); err == nil {
		t.Fatal("expected an error for a missing .env file")
	}
}

func TestLoadConfig(t *testing.T) {
	clearConfigEnv(t)
	path := writeEnvFile(t, "LOG_LEVEL=debug\nWINDOW_TITLE=Spinner\nWINDOW_WIDTH=1280\nWINDOW_HEIGHT=720\nSHADER_DIR=out/shaders\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.WindowTitle != "Spinner" {
		t.Errorf("WindowTitle = %q, want %q", cfg.WindowTitle, "Spinner")
	}
	if cfg.WindowWidth != 1280 || cfg.WindowHeight != 720 {
		t.Errorf("window size = %dx%d, want 1280x720", cfg.WindowWidth, cfg.WindowHeight)
	}
	if cfg.ShaderDir != "out/shaders" {
		t.Errorf("ShaderDir = %q, want %q", cfg.ShaderDir, "out/shaders")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	path := writeEnvFile(t, "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, defaultLogLevel)
	}
	if cfg.WindowTitle != defaultWindowTitle {
		t.Errorf("WindowTitle = %q, want default %q", cfg.WindowTitle, defaultWindowTitle)
	}
	if cfg.WindowWidth != defaultWindowWidth || cfg.WindowHeight != defaultWindowHeight {
		t.Errorf("window size = %dx%d, want defaults %dx%d",
			cfg.WindowWidth, cfg.WindowHeight, defaultWindowWidth, defaultWindowHeight)
	}
	if cfg.ShaderDir != defaultShaderDir {
		t.Errorf("ShaderDir = %q, want default %q", cfg.ShaderDir, defaultShaderDir)
	}
}

func TestLoadConfigRejectsBadDimensions(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"non-numeric width", "WINDOW_WIDTH=wide\n"},
		{"zero height", "WINDOW_HEIGHT=0\n"},
		{"negative width", "WINDOW_WIDTH=-100\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			path := writeEnvFile(t, tt.contents)
			if _, err := LoadConfig(path); err == nil {
				t.Fatalf("expected an error for %s", tt.name)
			}
		})
	}
}
