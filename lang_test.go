package textmodel

import (
	"errors"
	"testing"

	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"
)

// ═══════════════════════════════════════════════════════════════════════════════
// LANGUAGE TRANSFORM TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func newLangTransform(t *testing.T, lang string) *LangTransform {
	t.Helper()
	lt, err := NewLangTransform(lang, NewResources())
	if err != nil {
		t.Fatalf("NewLangTransform(%q) error = %v", lang, err)
	}
	return lt
}

func TestLangTransform_Negation(t *testing.T) {
	lt := newLangTransform(t, "spanish")

	tests := []struct {
		name string
		text string
		want string
	}{
		{"joins next word", "~los~carros~no~son~veloces~", "~los~carros~no_son~veloces~"},
		{"skip words move ahead", "~no~se~hubiese~hecho~", "~se~no_hubiese~hecho~"},
		{"markers collapse", "~nunca~jamas~vuelvo~", "~no_vuelvo~"},
		{"trailing marker", "~eso~no~", "~eso~no~"},
		{"class tokens move ahead", "~no~_usr~viene~", "~_usr~no_viene~"},
		{"no marker", "~hola~mundo~", "~hola~mundo~"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lt.Transform(tt.text, LangOptions{Negation: true, Stopwords: OptionNone})
			if got != tt.want {
				t.Errorf("Transform(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestLangTransform_Stopwords(t *testing.T) {
	lt := newLangTransform(t, "spanish")
	text := "~el~alma~de~la~fiesta~"

	if got, want := lt.Transform(text, LangOptions{Stopwords: OptionGroup}), "~_sw~alma~_sw~_sw~fiesta~"; got != want {
		t.Errorf("group: got %q, want %q", got, want)
	}
	if got, want := lt.Transform(text, LangOptions{Stopwords: OptionDelete}), "~alma~fiesta~"; got != want {
		t.Errorf("delete: got %q, want %q", got, want)
	}
	if got := lt.Transform(text, LangOptions{Stopwords: OptionNone}); got != text {
		t.Errorf("none: got %q, want %q", got, text)
	}
}

func TestLangTransform_StemmingKeepsClassTokens(t *testing.T) {
	lt := newLangTransform(t, "english")

	got := lt.Transform("~running~_usr~@ana~", LangOptions{Stemming: true, Stopwords: OptionNone})
	want := "~run~_usr~@ana~"

	if got != want {
		t.Errorf("Transform() = %q, want %q", got, want)
	}
}

func TestLangTransform_StemmingComposesWords(t *testing.T) {
	lt := newLangTransform(t, "spanish")

	stemmed, err := snowball.Stem("canción", "spanish", true)
	if err != nil {
		t.Fatalf("Stem() error = %v", err)
	}

	// diacritics kept: the text carries "cancio" + U+0301 + "n"
	got := lt.Transform("~"+norm.NFD.String("canción")+"~", LangOptions{Stemming: true})
	want := "~" + norm.NFD.String(stemmed) + "~"

	if got != want {
		t.Errorf("Transform() = %q, want %q", got, want)
	}
}

func TestLangTransform_NegationBeforeStopwords(t *testing.T) {
	lt := newLangTransform(t, "spanish")

	// "no" is not removed as a stopword once it is joined to "son"
	got := lt.Transform("~los~carros~no~son~veloces~", LangOptions{Negation: true, Stopwords: OptionDelete})
	want := "~carros~no_son~veloces~"

	if got != want {
		t.Errorf("Transform() = %q, want %q", got, want)
	}
}

func TestNewLangTransform_Unsupported(t *testing.T) {
	_, err := NewLangTransform("klingon", NewResources())
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("NewLangTransform() error = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestResources_LexiconIsCached(t *testing.T) {
	res := NewResources()

	first, err := res.Lexicon("french")
	if err != nil {
		t.Fatalf("Lexicon() error = %v", err)
	}
	second, err := res.Lexicon("french")
	if err != nil {
		t.Fatalf("Lexicon() error = %v", err)
	}
	if first != second {
		t.Error("Lexicon() loaded the same language twice")
	}
	if !first.IsStopword("le") {
		t.Error(`IsStopword("le") = false, want true`)
	}
}

func TestLexicon_MatchesStrippedSpelling(t *testing.T) {
	lex, err := NewResources().Lexicon("spanish")
	if err != nil {
		t.Fatalf("Lexicon() error = %v", err)
	}

	// "más" is listed with its accent
	for _, word := range []string{"mas", norm.NFD.String("más")} {
		if !lex.IsStopword(word) {
			t.Errorf("IsStopword(%q) = false, want true", word)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// LANGUAGE DETECTION TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestDetectLanguage(t *testing.T) {
	docs := []string{
		"El perro de mi abuela duerme todas las tardes en la cocina de la casa",
		"Mañana vamos a comer con nuestros amigos en el restaurante del pueblo",
		"Los niños juegan en el parque mientras sus padres conversan tranquilamente",
		"The weather is quite nice today and we are going for a long walk",
	}

	if got := DetectLanguage(docs); got != "spanish" {
		t.Errorf("DetectLanguage() = %q, want %q", got, "spanish")
	}
}

func TestDetectLanguage_Empty(t *testing.T) {
	if got := DetectLanguage(nil); got != "" {
		t.Errorf("DetectLanguage(nil) = %q, want empty", got)
	}
}
