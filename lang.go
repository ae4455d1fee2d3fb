// ═══════════════════════════════════════════════════════════════════════════════
// LANGUAGE-DEPENDENT TRANSFORMS
// ═══════════════════════════════════════════════════════════════════════════════
// Everything that needs to know which language a document is written in lives
// here: negation marking, stemming and stopword filtering. The transforms run on
// normalized text (words separated by the delimiter) in a fixed order:
//
//  1. Negation  → "los carros no son veloces" → "los carros no_son veloces"
//  2. Stemming  → "carros" → "carr"   (class tokens like _usr are kept as is)
//  3. Stopwords → "los" → removed (delete) or "_sw" (group)
//
// The lexicons are static data embedded in the binary. A Resources value is an
// explicit registry: every pipeline receives one at construction time and lexicons
// are loaded lazily, once per registry.
// ═══════════════════════════════════════════════════════════════════════════════

package textmodel

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"

	"github.com/abadojack/whatlanggo"
	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// StopwordToken replaces stopwords when they are grouped.
const StopwordToken = "_sw"

// SupportedLanguages lists the language tags accepted by the transforms.
var SupportedLanguages = []string{"spanish", "english", "french"}

//go:embed resources
var embeddedResources embed.FS

// IsSupportedLanguage reports whether lang has stemming and lexicon support.
func IsSupportedLanguage(lang string) bool {
	return slices.Contains(SupportedLanguages, lang)
}

// LangOptions selects the language-dependent transforms.
type LangOptions struct {
	Negation  bool
	Stemming  bool
	Stopwords Option
}

// LangTransformer rewrites normalized text for one language.
type LangTransformer interface {
	Transform(text string, opts LangOptions) string
}

// ───────────────────────────────────────────────────────────────────────────────
// Resource registry
// ───────────────────────────────────────────────────────────────────────────────

// NegationRules describes how negation is marked in one language.
type NegationRules struct {
	Mark    string   `yaml:"mark"`
	Markers []string `yaml:"markers"`
	Skip    []string `yaml:"skip"`
}

// Lexicon holds the static word lists of one language.
type Lexicon struct {
	Lang      string
	stopwords map[string]struct{}
	markers   map[string]struct{}
	skip      map[string]struct{}
	mark      string
}

// IsStopword reports whether word is a stopword.
func (l *Lexicon) IsStopword(word string) bool {
	_, ok := l.stopwords[word]
	return ok
}

// Resources is a registry of lexicons read from a file system laid out like the
// embedded resources directory:
//
//	resources/emoticons.yaml
//	resources/negation.yaml
//	resources/<lang>.stopwords
type Resources struct {
	fsys fs.FS

	mu        sync.Mutex
	lexicons  map[string]*Lexicon
	negation  map[string]NegationRules
	emoticons *Emoticons
}

// NewResources returns a registry over the embedded lexicons.
func NewResources() *Resources {
	return NewResourcesFS(embeddedResources)
}

// NewResourcesFS returns a registry over fsys.
func NewResourcesFS(fsys fs.FS) *Resources {
	return &Resources{
		fsys:     fsys,
		lexicons: make(map[string]*Lexicon),
	}
}

// Emoticons returns the compiled emoticon lexicon.
func (r *Resources) Emoticons() (*Emoticons, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emoticons != nil {
		return r.emoticons, nil
	}
	data, err := fs.ReadFile(r.fsys, "resources/emoticons.yaml")
	if err != nil {
		return nil, fmt.Errorf("read emoticon lexicon: %w", err)
	}
	e, err := ParseEmoticons(data)
	if err != nil {
		return nil, err
	}
	r.emoticons = e
	return e, nil
}

// Lexicon returns the lexicon of lang.
func (r *Resources) Lexicon(lang string) (*Lexicon, error) {
	if !IsSupportedLanguage(lang) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if lex, ok := r.lexicons[lang]; ok {
		return lex, nil
	}

	if r.negation == nil {
		data, err := fs.ReadFile(r.fsys, "resources/negation.yaml")
		if err != nil {
			return nil, fmt.Errorf("read negation rules: %w", err)
		}
		var rules map[string]NegationRules
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parse negation rules: %w", err)
		}
		r.negation = rules
	}

	stopwords, err := r.readWordList("resources/" + lang + ".stopwords")
	if err != nil {
		return nil, err
	}

	rules := r.negation[lang]
	lex := &Lexicon{
		Lang:      lang,
		stopwords: wordSet(stopwords),
		markers:   wordSet(withBareSpellings(rules.Markers)),
		skip:      wordSet(withBareSpellings(rules.Skip)),
		mark:      rules.Mark,
	}
	r.lexicons[lang] = lex
	return lex, nil
}

// readWordList reads one word per line; blank lines and # comments are ignored.
func (r *Resources) readWordList(name string) ([]string, error) {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list %s: %w", name, err)
	}
	return words, nil
}

// wordSet indexes every word in the spellings normalized text can contain:
// decomposed with marks, and with marks stripped.
func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, 2*len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		set[norm.NFD.String(w)] = struct{}{}
		set[stripMarks(w)] = struct{}{}
	}
	return set
}

// withBareSpellings adds the punctuation-free spelling of every word, the
// form a word takes once del_punc has run ("don't" → "dont").
func withBareSpellings(words []string) []string {
	out := slices.Clone(words)
	for _, w := range words {
		if bare := stripPunctuation(w); bare != "" && bare != w {
			out = append(out, bare)
		}
	}
	return out
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if isPunctuation(r) {
			return -1
		}
		return r
	}, s)
}

func stripMarks(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if !isCombiningMark(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ───────────────────────────────────────────────────────────────────────────────
// Transform
// ───────────────────────────────────────────────────────────────────────────────

// LangTransform applies negation, stemming and stopword filtering for one
// language.
type LangTransform struct {
	lex *Lexicon
}

// NewLangTransform builds the transform of lang from res. Unsupported languages
// fail before any text is processed.
func NewLangTransform(lang string, res *Resources) (*LangTransform, error) {
	lex, err := res.Lexicon(lang)
	if err != nil {
		return nil, err
	}
	return &LangTransform{lex: lex}, nil
}

// Transform implements LangTransformer.
func (t *LangTransform) Transform(text string, opts LangOptions) string {
	if opts.Negation {
		text = t.negate(text)
	}
	if opts.Stemming {
		text = t.stem(text)
	}
	if opts.Stopwords == OptionDelete || opts.Stopwords == OptionGroup {
		text = t.filterStopwords(text, opts.Stopwords)
	}
	return text
}

// negate joins each negation marker to the next content word.
//
// ALGORITHM:
// ----------
//  1. A marker (and any markers right after it) becomes a single mark.
//  2. Skip words and class tokens after the mark move in front of it.
//  3. The next word is rewritten as mark_word.
//
// Example (spanish):
//
//	"no se hubiese hecho" → "se no_hubiese hecho"
func (t *LangTransform) negate(text string) string {
	if t.lex.mark == "" || len(t.lex.markers) == 0 {
		return text
	}

	words := splitWords(text)
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		if !t.isMarker(words[i]) {
			out = append(out, words[i])
			continue
		}

		j := i + 1
		for j < len(words) && t.isMarker(words[j]) {
			j++
		}
		for j < len(words) && t.isSkipped(words[j]) {
			out = append(out, words[j])
			j++
		}

		if j < len(words) {
			out = append(out, t.lex.mark+"_"+words[j])
			i = j
		} else {
			out = append(out, t.lex.mark)
			i = j - 1
		}
	}
	return joinWords(out)
}

func (t *LangTransform) isMarker(word string) bool {
	_, ok := t.lex.markers[strings.ToLower(word)]
	return ok
}

func (t *LangTransform) isSkipped(word string) bool {
	if strings.HasPrefix(word, "_") {
		return true
	}
	_, ok := t.lex.skip[strings.ToLower(word)]
	return ok
}

// stem stems every delimiter-separated field, keeping empty fields so the
// delimiter layout of the text survives. The stemmer sees composed words and
// its output is decomposed again to match the rest of the text.
func (t *LangTransform) stem(text string) string {
	fields := strings.Split(text, string(Delimiter))
	for i, field := range fields {
		if field == "" || strings.ContainsAny(field[:1], "@#_") {
			continue
		}
		stemmed, err := snowball.Stem(norm.NFC.String(field), t.lex.Lang, true)
		if err != nil || stemmed == "" {
			continue
		}
		fields[i] = norm.NFD.String(stemmed)
	}
	return strings.Join(fields, string(Delimiter))
}

func (t *LangTransform) filterStopwords(text string, opt Option) string {
	words := splitWords(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !t.lex.IsStopword(strings.ToLower(w)) {
			out = append(out, w)
			continue
		}
		if opt == OptionGroup {
			out = append(out, StopwordToken)
		}
	}
	return joinWords(out)
}

// splitWords splits normalized text into its non-empty words.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == Delimiter })
}

// joinWords is the inverse of splitWords; the result is delimiter-wrapped.
func joinWords(words []string) string {
	d := string(Delimiter)
	return d + strings.Join(words, d) + d
}

// ───────────────────────────────────────────────────────────────────────────────
// Language detection
// ───────────────────────────────────────────────────────────────────────────────

var detectedLanguages = map[whatlanggo.Lang]string{
	whatlanggo.Spa: "spanish",
	whatlanggo.Eng: "english",
	whatlanggo.Fra: "french",
}

// DetectLanguage returns the supported language most documents are written in,
// or "" when none of them is recognized. Ties go to the language listed first
// in SupportedLanguages.
func DetectLanguage(docs []string) string {
	votes := make(map[string]int)
	for _, doc := range docs {
		info := whatlanggo.Detect(doc)
		if lang, ok := detectedLanguages[info.Lang]; ok {
			votes[lang]++
		}
	}

	best, bestVotes := "", 0
	for _, lang := range SupportedLanguages {
		if votes[lang] > bestVotes {
			best, bestVotes = lang, votes[lang]
		}
	}
	return best
}
