package textmodel

import (
	"reflect"
	"strings"
	"testing"
)

// ═══════════════════════════════════════════════════════════════════════════════
// TOKENIZATION TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestTokenize(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		tokenList []int
		want      []string
	}{
		{"char bigrams", "~ab~", []int{2}, []string{"~a", "ab", "b~"}},
		{"words", "~buenos~dias~", []int{-1}, []string{"buenos", "dias"}},
		{"word bigrams", "~buenos~dias~", []int{-2}, []string{"buenos~dias"}},
		{"token list order", "~ab~", []int{-1, 4}, []string{"ab", "~ab~"}},
		{"duplicates kept", "~aa~", []int{1}, []string{"~", "a", "a", "~"}},
		{"multibyte runes", "~ñu~", []int{2}, []string{"~ñ", "ñu", "u~"}},
		{"k longer than text", "~a~", []int{5}, nil},
		{"too few words", "~hola~", []int{-2}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text, tt.tokenList)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q, %v) = %q, want %q", tt.text, tt.tokenList, got, tt.want)
			}
		})
	}
}

func TestTokenize_Counts(t *testing.T) {
	text := "~buenos~dias~"
	n := len([]rune(text))

	for _, q := range []int{1, 2, 3, 7} {
		if got := len(Tokenize(text, []int{q})); got != n-q+1 {
			t.Errorf("%d-grams: got %d tokens, want %d", q, got, n-q+1)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// ANALYZER TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestAnalyzer_Pipeline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenList = []int{-1}

	a, err := NewAnalyzer(cfg, NewResources())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	if got, want := a.Transform("@Ana qué díííaaa :)"), "~_usr~que~dia~_pos~"; got != want {
		t.Errorf("Transform() = %q, want %q", got, want)
	}

	got := a.Analyze("@Ana qué díííaaa :)")
	want := []string{"_usr", "que", "dia", "_pos"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze() = %q, want %q", got, want)
	}
}

func TestAnalyzer_PunctuationKeepsEmoticons(t *testing.T) {
	for _, delPunc := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.TokenList = []int{-1}
		cfg.DeletePunctuation = delPunc

		a, err := NewAnalyzer(cfg, NewResources())
		if err != nil {
			t.Fatalf("NewAnalyzer() error = %v", err)
		}

		got := a.Analyze("que bien :) :( jaja")
		want := []string{"que", "bien", "_pos", "_neg", "_pos"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("del_punc=%v: Analyze() = %q, want %q", delPunc, got, want)
		}
	}
}

func TestAnalyzer_PunctuationKeepsNegation(t *testing.T) {
	for _, delPunc := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.TokenList = []int{-1}
		cfg.EmoOption = OptionNone
		cfg.DeletePunctuation = delPunc
		cfg.Lang = "english"
		cfg.Negation = true

		a, err := NewAnalyzer(cfg, NewResources())
		if err != nil {
			t.Fatalf("NewAnalyzer() error = %v", err)
		}

		got := a.Analyze("I don't like it")
		want := []string{"i", "no_like", "it"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("del_punc=%v: Analyze() = %q, want %q", delPunc, got, want)
		}
	}
}

func TestAnalyzer_Deterministic(t *testing.T) {
	cfg := Config{
		StripDiacritics:   true,
		DeleteDuplicates:  true,
		DeletePunctuation: true,
		Lowercase:         true,
		NumOption:         OptionGroup,
		URLOption:         OptionDelete,
		UsrOption:         OptionGroup,
		EmoOption:         OptionGroup,
		Lang:              "spanish",
		Negation:          true,
		Stemming:          true,
		Stopwords:         OptionGroup,
		Weighting:         WeightingTFIDF,
		TokenList:         []int{-2, -1, 2, 3, 5},
	}
	text := "@Juan no me gustó NADA la película :( 10/10 http://cine.mx/x #fail"

	a, err := NewAnalyzer(cfg, NewResources())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	b, err := NewAnalyzer(cfg, NewResources())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	first := a.Analyze(text)
	if len(first) == 0 {
		t.Fatal("Analyze() returned no tokens")
	}
	if again := a.Analyze(text); !reflect.DeepEqual(first, again) {
		t.Errorf("second call differs: %q vs %q", first, again)
	}
	if other := b.Analyze(text); !reflect.DeepEqual(first, other) {
		t.Errorf("second analyzer differs: %q vs %q", first, other)
	}
}

func TestAnalyzer_LanguageOff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenList = []int{-1}

	a, err := NewAnalyzer(cfg, NewResources())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	// No language: "no" stays a plain word.
	if got := a.Transform("no son"); strings.Contains(got, "no_") {
		t.Errorf("Transform() = %q, want no negation marks", got)
	}
}

func TestNewAnalyzer_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenList = nil

	if _, err := NewAnalyzer(cfg, NewResources()); err == nil {
		t.Error("NewAnalyzer() error = nil, want invalid configuration")
	}
}
