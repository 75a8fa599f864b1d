package patterns

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestDefaultCompiles(t *testing.T) {
	s := Default()

	if len(s.Hedging) == 0 {
		t.Error("default set should carry hedging phrases")
	}
	if len(s.Challenge) == 0 {
		t.Error("default set should carry challenge patterns")
	}
	if len(s.Emotional) == 0 {
		t.Error("default set should carry emotional words")
	}
}

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() should return the same compiled set")
	}
}

func TestPhraseListsLowercased(t *testing.T) {
	for _, phrase := range Default().Validation {
		if phrase != toLowerASCII(phrase) {
			t.Errorf("validation phrase not lowercased: %q", phrase)
		}
	}
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func TestDefaultPatternsMatch(t *testing.T) {
	s := Default()

	tests := []struct {
		name string
		res  []*regexp.Regexp
		text string
		want bool
	}{
		{"affirming", s.Affirming, "You're right, that makes sense.", true},
		{"affirming miss", s.Affirming, "Here is the capital of France.", false},
		{"challenge", s.Challenge, "I would have to disagree with that plan.", true},
		{"challenge not bare however", s.Challenge, "This works; however the cost is higher.", false},
		{"strong validation", s.StrongValidation, "You're absolutely right!", true},
		{"boundary confusion", s.BoundaryConfusion, "Why don't you remember what I told you?", true},
		{"offloading", s.Offloading, "Can you figure out my budget for me?", true},
	}

	for _, tt := range tests {
		got := false
		for _, re := range tt.res {
			if re.MatchString(tt.text) {
				got = true
				break
			}
		}
		if got != tt.want {
			t.Errorf("%s: match(%q) = %v, want %v", tt.name, tt.text, got, tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	var nf *FileNotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Load on missing file should return *FileNotFoundError, got %v", err)
	}
}

func TestLoadPartialFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	custom := "hedging:\n  - \"my custom hedge\"\n"
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatalf("writing pattern file: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(s.Hedging) != 1 || s.Hedging[0] != "my custom hedge" {
		t.Errorf("custom hedging list should replace the default, got %v", s.Hedging)
	}
	if len(s.Challenge) == 0 {
		t.Error("lists absent from the file should fall back to defaults")
	}
}

func TestLoadBadRegex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	bad := "challenge:\n  - \"([unclosed\"\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("writing pattern file: %v", err)
	}

	_, err := Load(path)
	var inv *InvalidPatternError
	if !errors.As(err, &inv) {
		t.Fatalf("Load with bad regex should return *InvalidPatternError, got %v", err)
	}
	if inv.List != "challenge" {
		t.Errorf("error should name the offending list, got %q", inv.List)
	}
}

func TestCompileRejectsEmptyRequiredList(t *testing.T) {
	cfg := defaultConfig()
	cfg.Hedging = nil

	_, err := cfg.Compile("")
	var inv *InvalidPatternError
	if !errors.As(err, &inv) {
		t.Fatalf("Compile with empty required list should fail, got %v", err)
	}
	if inv.List != "hedging" {
		t.Errorf("error should name the empty list, got %q", inv.List)
	}
}
