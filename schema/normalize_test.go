package schema

import "testing"

func TestValidateDocumentID(t *testing.T) {
	cases := []struct {
		name  string
		id    DocumentID
		valid bool
	}{
		{"simple", "notes", true},
		{"with-dots", "notes.v2", true},
		{"with-underscore", "meeting_notes", true},
		{"with-dash", "meeting-notes", true},
		{"with-digits", "draft123", true},
		{"empty", "", false},
		{"leading-dot", ".hidden", false},
		{"traversal", "../etc", false},
		{"uppercase", "Notes", false},
		{"space", "my notes", false},
		{"slash", "a/b", false},
		{"unicode", "nötes", false},
	}

	for _, tc := range cases {
		err := ValidateDocumentID(tc.id)
		if tc.valid && err != nil {
			t.Fatalf("case %q expected valid, got error: %v", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Fatalf("case %q expected error, got nil", tc.name)
		}
	}
}

func TestNormalizeThemeName(t *testing.T) {
	cases := []struct {
		in   string
		want ThemeName
		ok   bool
	}{
		{"light", ThemeLight, true},
		{" Dark ", ThemeDark, true},
		{"night", ThemeDark, true},
		{"day", ThemeLight, true},
		{"outrun", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeThemeName(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("NormalizeThemeName(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeHostConfigDefaults(t *testing.T) {
	cfg, err := NormalizeHostConfig(HostConfig{StateDir: t.TempDir()})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.DefaultTheme != DefaultTheme {
		t.Fatalf("expected default theme, got %q", cfg.DefaultTheme)
	}
	if cfg.DefaultDocument != DefaultDocument {
		t.Fatalf("expected default document, got %q", cfg.DefaultDocument)
	}
	if cfg.PreviewRunes != DefaultPreviewRunes {
		t.Fatalf("expected default preview runes, got %d", cfg.PreviewRunes)
	}
	if _, err := NormalizeHostConfig(HostConfig{StateDir: t.TempDir(), DefaultTheme: "sepia"}); err == nil {
		t.Fatalf("expected invalid theme error")
	}
}
