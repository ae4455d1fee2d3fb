package textmodel

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	goahocorasick "github.com/anknown/ahocorasick"
	"gopkg.in/yaml.v3"
)

// ═══════════════════════════════════════════════════════════════════════════════
// EMOTICON LEXICON
// ═══════════════════════════════════════════════════════════════════════════════
// The lexicon maps fixed character codes (":)", "<3", emoji) and alphabetic
// emotion words ("xd", "jaja") onto a handful of sentiment classes.
//
// MATCHING RULES:
// ---------------
//  1. Codes are matched on the lowercased text, but unmatched spans keep their
//     original casing.
//  2. At a given position code lengths are tried from the shortest upward and
//     the first hit wins.
//  3. Emotion words only match as whole words.
//
// An Aho-Corasick automaton over every code finds the positions where any code
// starts, so the per-position length probe only runs where it can succeed.
//
// EXAMPLE (group):
// ----------------
// Input:  "~Hi~:)~:P~XD~"
// Output: "~Hi~_pos~_pos~_pos~"
// ═══════════════════════════════════════════════════════════════════════════════

// EmoticonClass describes the codes and words of one sentiment class.
type EmoticonClass struct {
	Codes []string `yaml:"codes"`
	Words []string `yaml:"words"`
}

// Emoticons is a compiled emoticon lexicon. It is safe for concurrent use.
type Emoticons struct {
	codes   map[string]string // lowercased code → class
	lengths []int             // distinct code lengths in runes, ascending
	machine *goahocorasick.Machine

	words     *regexp.Regexp
	wordClass map[string]string // lowercased word → class
}

// ParseEmoticons compiles a YAML lexicon keyed by class token.
func ParseEmoticons(data []byte) (*Emoticons, error) {
	var classes map[string]EmoticonClass
	if err := yaml.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("parse emoticon lexicon: %w", err)
	}
	return NewEmoticons(classes)
}

// NewEmoticons compiles a lexicon. Class names become the group tokens.
func NewEmoticons(classes map[string]EmoticonClass) (*Emoticons, error) {
	e := &Emoticons{
		codes:     make(map[string]string),
		wordClass: make(map[string]string),
	}

	// Class iteration order is fixed so a code listed twice resolves the same
	// way on every load.
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)

	lengths := make(map[int]struct{})
	var words []string
	for _, name := range names {
		class := classes[name]
		for _, code := range class.Codes {
			code = lowerRunes(code)
			if code == "" {
				continue
			}
			if _, seen := e.codes[code]; seen {
				continue
			}
			e.codes[code] = name
			lengths[len([]rune(code))] = struct{}{}
		}
		for _, word := range class.Words {
			word = strings.ToLower(word)
			if word == "" {
				continue
			}
			if _, seen := e.wordClass[word]; seen {
				continue
			}
			e.wordClass[word] = name
			words = append(words, regexp.QuoteMeta(word))
		}
	}

	for n := range lengths {
		e.lengths = append(e.lengths, n)
	}
	sort.Ints(e.lengths)

	if len(e.codes) > 0 {
		patterns := make([][]rune, 0, len(e.codes))
		for code := range e.codes {
			patterns = append(patterns, []rune(code))
		}
		slices.SortFunc(patterns, func(a, b []rune) int { return slices.Compare(a, b) })

		m := new(goahocorasick.Machine)
		if err := m.Build(patterns); err != nil {
			return nil, fmt.Errorf("build emoticon automaton: %w", err)
		}
		e.machine = m
	}

	if len(words) > 0 {
		sort.Strings(words)
		e.words = regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`)
	}
	return e, nil
}

// Len returns the number of codes and words in the lexicon.
func (e *Emoticons) Len() int {
	return len(e.codes) + len(e.wordClass)
}

// Replace applies opt to every emoticon in text. A replacement shares its
// delimiters with its neighbours; delimiters elsewhere are left alone.
func (e *Emoticons) Replace(text string, opt Option) string {
	if opt != OptionDelete && opt != OptionGroup {
		return text
	}

	replacement := func(class string) string {
		if opt == OptionGroup {
			return string(Delimiter) + class + string(Delimiter)
		}
		return string(Delimiter)
	}

	text = e.replaceCodes(text, replacement)
	if e.words != nil {
		var sp splicer
		last := 0
		for _, loc := range e.words.FindAllStringIndex(text, -1) {
			sp.copy(text[last:loc[0]])
			sp.replace(replacement(e.wordClass[strings.ToLower(text[loc[0]:loc[1]])]))
			last = loc[1]
			if sp.endsWithDelimiter() && last < len(text) && text[last] == byte(Delimiter) {
				last++
			}
		}
		sp.copy(text[last:])
		text = sp.String()
	}
	return text
}

func (e *Emoticons) replaceCodes(text string, replacement func(string) string) string {
	if e.machine == nil {
		return text
	}

	runes := []rune(text)
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	starts := make([]bool, len(runes))
	found := false
	for _, term := range e.machine.MultiPatternSearch(lower, false) {
		if term.Pos >= 0 && term.Pos < len(starts) {
			starts[term.Pos] = true
			found = true
		}
	}
	if !found {
		return text
	}

	var sp splicer
	sp.Grow(len(text))
	for i := 0; i < len(runes); {
		if starts[i] {
			if class, n, ok := e.matchAt(lower, i); ok {
				sp.replace(replacement(class))
				i += n
				if sp.endsWithDelimiter() && i < len(runes) && runes[i] == Delimiter {
					i++
				}
				continue
			}
		}
		sp.WriteRune(runes[i])
		i++
	}
	return sp.String()
}

// splicer builds text from copied spans and replacements. A replacement drops
// its leading delimiter when the text written so far already ends with one.
type splicer struct {
	strings.Builder
	last rune
}

func (s *splicer) copy(text string) {
	if text == "" {
		return
	}
	s.WriteString(text)
	r, _ := utf8.DecodeLastRuneInString(text)
	s.last = r
}

func (s *splicer) WriteRune(r rune) (int, error) {
	s.last = r
	return s.Builder.WriteRune(r)
}

func (s *splicer) replace(piece string) {
	if s.endsWithDelimiter() {
		piece = strings.TrimPrefix(piece, string(Delimiter))
	}
	s.copy(piece)
}

func (s *splicer) endsWithDelimiter() bool {
	return s.Len() > 0 && s.last == Delimiter
}

// matchAt probes code lengths from the shortest upward.
func (e *Emoticons) matchAt(lower []rune, i int) (string, int, bool) {
	for _, n := range e.lengths {
		if i+n > len(lower) {
			break
		}
		if class, ok := e.codes[string(lower[i:i+n])]; ok {
			return class, n, true
		}
	}
	return "", 0, false
}

// lowerRunes lowercases rune by rune so indexes into the lowered text line up
// with the original.
func lowerRunes(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return string(runes)
}
