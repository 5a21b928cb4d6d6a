package schema

import (
	"os"
	"path/filepath"
)

// HostConfig defines defaults for host-owned document state.
type HostConfig struct {
	StateDir        string
	DefaultDocument DocumentID
	DefaultTheme    ThemeName
	Placeholder     string
	PreviewRunes    int
}

// DefaultPreviewRunes bounds plain-text previews.
const DefaultPreviewRunes = 280

// DefaultDocument is used when a request does not name a document.
const DefaultDocument DocumentID = "scratch"

// NormalizeHostConfig applies defaults and validates the config.
func NormalizeHostConfig(cfg HostConfig) (HostConfig, error) {
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return HostConfig{}, err
		}
		cfg.StateDir = filepath.Join(home, ".inkbridge", "state")
	}
	if cfg.DefaultDocument == "" {
		cfg.DefaultDocument = DefaultDocument
	}
	if err := ValidateDocumentID(cfg.DefaultDocument); err != nil {
		return HostConfig{}, err
	}
	if cfg.DefaultTheme == "" {
		cfg.DefaultTheme = DefaultTheme
	}
	theme, ok := NormalizeThemeName(string(cfg.DefaultTheme))
	if !ok {
		return HostConfig{}, ErrInvalidTheme
	}
	cfg.DefaultTheme = theme
	if cfg.PreviewRunes <= 0 {
		cfg.PreviewRunes = DefaultPreviewRunes
	}
	return cfg, nil
}
