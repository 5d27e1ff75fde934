package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal time.Duration
		expected   time.Duration
	}{
		{"parses duration", "TEST_DUR_1", "45s", time.Second, 45 * time.Second},
		{"parses plain seconds", "TEST_DUR_2", "20", time.Second, 20 * time.Second},
		{"uses default for empty", "TEST_DUR_3", "", 30 * time.Second, 30 * time.Second},
		{"uses default for garbage", "TEST_DUR_4", "soon", 30 * time.Second, 30 * time.Second},
		{"uses default for negative", "TEST_DUR_5", "-5s", 30 * time.Second, 30 * time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsDurationOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, result)
			}
		})
	}
}

func TestLoadPipeline_Defaults(t *testing.T) {
	for _, key := range []string{"YTDLP_PATH", "CAPTION_TIMEOUT", "METADATA_TIMEOUT", "METADATA_SOURCE", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
	}

	cfg := loadPipeline()
	if cfg.YtDlpPath != "yt-dlp" {
		t.Errorf("Expected yt-dlp, got %q", cfg.YtDlpPath)
	}
	if cfg.CaptionTimeout != 30*time.Second || cfg.MetadataTimeout != 15*time.Second {
		t.Errorf("Unexpected timeouts %s/%s", cfg.CaptionTimeout, cfg.MetadataTimeout)
	}
	if cfg.MetadataSource != "ytdlp" {
		t.Errorf("Expected ytdlp metadata source, got %q", cfg.MetadataSource)
	}
}

func TestLoadPipeline_Overrides(t *testing.T) {
	t.Setenv("YTDLP_PATH", "/opt/bin/yt-dlp")
	t.Setenv("METADATA_SOURCE", "YouTube")
	t.Setenv("CAPTION_TIMEOUT", "1m")

	cfg := loadPipeline()
	if cfg.YtDlpPath != "/opt/bin/yt-dlp" || cfg.MetadataSource != "youtube" || cfg.CaptionTimeout != time.Minute {
		t.Errorf("Unexpected config %+v", cfg)
	}
}
