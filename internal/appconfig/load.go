package appconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"pkt.systems/inkbridge/schema"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.base_url", cfg.HTTP.BaseURL)
	v.SetDefault("http.base_path", cfg.HTTP.BasePath)
	v.SetDefault("http.outbox_history", cfg.HTTP.OutboxHistory)
	v.SetDefault("http.stream_depth", cfg.HTTP.StreamDepth)
	v.SetDefault("editor.default_document", cfg.Editor.DefaultDocument)
	v.SetDefault("editor.default_theme", cfg.Editor.DefaultTheme)
	v.SetDefault("editor.placeholder", cfg.Editor.Placeholder)
	v.SetDefault("editor.preview_runes", cfg.Editor.PreviewRunes)
	v.SetDefault("editor.loop_depth", cfg.Editor.LoopDepth)
	v.SetDefault("chrome.exec_path", cfg.Chrome.ExecPath)
	v.SetDefault("chrome.headless", cfg.Chrome.Headless)
	v.SetDefault("chrome.no_sandbox", cfg.Chrome.NoSandbox)
	v.SetDefault("chrome.timeout_seconds", cfg.Chrome.TimeoutSeconds)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validateHTTPConfig(cfg.HTTP); err != nil {
		return Config{}, err
	}
	if err := validateEditorConfig(&cfg.Editor); err != nil {
		return Config{}, err
	}
	if err := validateChromeConfig(cfg.Chrome); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateHTTPConfig(cfg HTTPConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("http.addr is required")
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("http.base_url must include scheme and host (e.g. https://example.com)")
		}
	}
	if basePath := strings.TrimSpace(cfg.BasePath); strings.Contains(basePath, "://") {
		return fmt.Errorf("http.base_path must be a path prefix, not a URL")
	} else if strings.ContainsAny(basePath, "?#") {
		return fmt.Errorf("http.base_path must not include query or fragment")
	}
	if cfg.OutboxHistory < 0 || cfg.StreamDepth < 0 {
		return fmt.Errorf("http.outbox_history and http.stream_depth must not be negative")
	}
	return nil
}

func validateEditorConfig(cfg *EditorConfig) error {
	if err := schema.ValidateDocumentID(schema.DocumentID(cfg.DefaultDocument)); err != nil {
		return fmt.Errorf("editor.default_document %q must match [a-z0-9._-]", cfg.DefaultDocument)
	}
	theme, ok := schema.NormalizeThemeName(cfg.DefaultTheme)
	if !ok {
		return fmt.Errorf("unsupported editor.default_theme %q", cfg.DefaultTheme)
	}
	cfg.DefaultTheme = string(theme)
	if cfg.LoopDepth < 0 {
		return fmt.Errorf("editor.loop_depth must not be negative")
	}
	return nil
}

func validateChromeConfig(cfg ChromeConfig) error {
	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("chrome.timeout_seconds must be positive")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	for _, field := range []*string{&cfg.StateDir, &cfg.HTTP.BaseURL, &cfg.Chrome.ExecPath} {
		*field = expandEnv(*field)
	}
}

// expandEnv expands $VAR and ${VAR} references and a leading "~/". Unknown
// variables are kept verbatim so a typo stays visible in error messages.
func expandEnv(value string) string {
	if value == "" {
		return value
	}
	if rest, ok := strings.CutPrefix(value, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			value = filepath.Join(home, rest)
		}
	}
	return os.Expand(value, func(key string) string {
		switch {
		case key == "":
			return ""
		case key == "UID":
			if val, ok := os.LookupEnv(key); ok {
				return val
			}
			return strconv.Itoa(os.Getuid())
		case key == "GID":
			if val, ok := os.LookupEnv(key); ok {
				return val
			}
			return strconv.Itoa(os.Getgid())
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
