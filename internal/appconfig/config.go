package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/inkbridge/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int          `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string       `mapstructure:"state_dir" yaml:"state_dir"`
	HTTP          HTTPConfig   `mapstructure:"http" yaml:"http"`
	Editor        EditorConfig `mapstructure:"editor" yaml:"editor"`
	Chrome        ChromeConfig `mapstructure:"chrome" yaml:"chrome"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr          string `mapstructure:"addr" yaml:"addr"`
	BaseURL       string `mapstructure:"base_url" yaml:"base_url"`
	BasePath      string `mapstructure:"base_path" yaml:"base_path"`
	OutboxHistory int    `mapstructure:"outbox_history" yaml:"outbox_history"`
	StreamDepth   int    `mapstructure:"stream_depth" yaml:"stream_depth"`
}

// EditorConfig controls host document defaults.
type EditorConfig struct {
	DefaultDocument string `mapstructure:"default_document" yaml:"default_document"`
	DefaultTheme    string `mapstructure:"default_theme" yaml:"default_theme"`
	Placeholder     string `mapstructure:"placeholder" yaml:"placeholder"`
	PreviewRunes    int    `mapstructure:"preview_runes" yaml:"preview_runes"`
	LoopDepth       int    `mapstructure:"loop_depth" yaml:"loop_depth"`
}

// ChromeConfig configures the headless Chrome surface used by render.
type ChromeConfig struct {
	ExecPath       string `mapstructure:"exec_path" yaml:"exec_path"`
	Headless       bool   `mapstructure:"headless" yaml:"headless"`
	NoSandbox      bool   `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".inkbridge", "state"),
		HTTP: HTTPConfig{
			Addr:          ":27580",
			BaseURL:       "",
			BasePath:      "",
			OutboxHistory: 200,
			StreamDepth:   256,
		},
		Editor: EditorConfig{
			DefaultDocument: string(schema.DefaultDocument),
			DefaultTheme:    string(schema.DefaultTheme),
			Placeholder:     "Start writing...",
			PreviewRunes:    schema.DefaultPreviewRunes,
			LoopDepth:       256,
		},
		Chrome: ChromeConfig{
			ExecPath:       "",
			Headless:       true,
			NoSandbox:      false,
			TimeoutSeconds: 30,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".inkbridge", "config.yaml"), nil
}

// HostConfig converts the config into core host settings.
func (c Config) HostConfig() schema.HostConfig {
	return schema.HostConfig{
		StateDir:        c.StateDir,
		DefaultDocument: schema.DocumentID(c.Editor.DefaultDocument),
		DefaultTheme:    schema.ThemeName(c.Editor.DefaultTheme),
		Placeholder:     c.Editor.Placeholder,
		PreviewRunes:    c.Editor.PreviewRunes,
	}
}
