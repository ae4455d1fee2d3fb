package textmodel

import (
	"errors"
	"strings"
	"testing"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestConfig_Key(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()

	if a.Key() != b.Key() {
		t.Errorf("equal configurations have different keys:\n%s\n%s", a.Key(), b.Key())
	}

	b.TokenList = []int{-2, -1, 3}
	if a.Key() == b.Key() {
		t.Error("configurations with different token lists share a key")
	}

	c := DefaultConfig()
	c.Lowercase = false
	if a.Key() == c.Key() {
		t.Error("configurations with different lc share a key")
	}
}

func TestConfig_Key_Format(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenList = []int{-1, 2, 3}
	key := cfg.Key()

	for _, part := range []string{"token_list=[-1,2,3]", "lc=true", "del_punc=false", "weighting=tfidf"} {
		if !strings.Contains(key, part) {
			t.Errorf("Key() = %q, missing %q", key, part)
		}
	}

	// Pairs appear in name order.
	if strings.Index(key, "del_diac=") > strings.Index(key, "weighting=") {
		t.Errorf("Key() = %q is not sorted by name", key)
	}
}

func TestConfig_Clone(t *testing.T) {
	a := DefaultConfig()
	b := a.Clone()
	b.TokenList[0] = 7

	if a.TokenList[0] == 7 {
		t.Error("Clone() shares the token list")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"default", func(*Config) {}, true},
		{"with language", func(c *Config) { c.Lang = "spanish"; c.Stemming = true }, true},
		{"empty token list", func(c *Config) { c.TokenList = nil }, false},
		{"zero q", func(c *Config) { c.TokenList = []int{0, 1} }, false},
		{"repeated q", func(c *Config) { c.TokenList = []int{2, 2} }, false},
		{"unknown option", func(c *Config) { c.URLOption = "hide" }, false},
		{"unknown weighting", func(c *Config) { c.Weighting = "bm25" }, false},
		{"unsupported language", func(c *Config) { c.Lang = "klingon" }, false},
		{"threshold above one", func(c *Config) { c.Threshold = 1.5 }, false},
		{"negative filter", func(c *Config) { c.TokenMinFilter = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_Digest(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()

	if len(a.Digest()) != 32 {
		t.Errorf("Digest() = %q, want 32 hex characters", a.Digest())
	}
	if a.Digest() != b.Digest() {
		t.Error("equal configurations have different digests")
	}
	b.Stemming = true
	if a.Digest() == b.Digest() {
		t.Error("different configurations share a digest")
	}
}
