// ═══════════════════════════════════════════════════════════════════════════════
// TEXT ANALYSIS OVERVIEW
// ═══════════════════════════════════════════════════════════════════════════════
// Text analysis transforms a raw short document into the token multiset the
// vector space is built from. Every stage is driven by the Config.
//
// ANALYSIS PIPELINE:
// ------------------
//  1. Lowercasing         → "Hola @Ana" → "hola @ana"             (lc)
//  2. Entity tagging      → numbers, URLs, users                   (num/url/usr_option)
//  3. Normalization       → NFD, diacritics, repeats, delimiters   (del_diac, del_dup)
//  4. Emoticon tagging    → ":)" → "_pos"                          (emo_option)
//  5. Punctuation         → "hola," → "hola"                       (del_punc)
//  6. Language transform  → negation, stemming, stopwords          (lang)
//  7. Tokenization        → word and character q-grams             (token_list)
//
// EXAMPLE TRANSFORMATION:
// -----------------------
// Config: lc, del_diac, del_dup, usr_option=group, token_list=[-1]
// Input:  "@Ana qué díííaaa :)"
// Step 1: "@ana qué díííaaa :)"
// Step 2: "_usr qué díííaaa :)"
// Step 3: "~_usr~que~dia~:)~"
// Step 4: "~_usr~que~dia~_pos~"
// Step 7: ["_usr", "que", "dia", "_pos"]
//
// Entity tagging runs before normalization so the URL and user patterns still
// see whitespace. Emoticons run after it so repeated characters (":)))") are
// already collapsed, and punctuation is only dropped once the emoticon codes
// made of it have been replaced.
// ═══════════════════════════════════════════════════════════════════════════════

package textmodel

import (
	"strings"
)

// Analyzer runs the text pipeline of one configuration. It holds no mutable
// state and is safe for concurrent use.
type Analyzer struct {
	cfg      Config
	tagger   *Tagger
	lang     LangTransformer
	normOpts NormalizeOptions
	langOpts LangOptions
}

// NewAnalyzer validates cfg and builds its pipeline from res.
//
// Example:
//
//	a, err := NewAnalyzer(DefaultConfig(), NewResources())
//	tokens := a.Analyze("buenos días")
func NewAnalyzer(cfg Config, res *Resources) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var emoticons *Emoticons
	if cfg.EmoOption != OptionNone {
		var err error
		if emoticons, err = res.Emoticons(); err != nil {
			return nil, err
		}
	}

	a := &Analyzer{
		cfg: cfg.Clone(),
		tagger: NewTagger(TagOptions{
			Num: cfg.NumOption,
			URL: cfg.URLOption,
			Usr: cfg.UsrOption,
			Emo: cfg.EmoOption,
		}, emoticons),
		normOpts: NormalizeOptions{
			StripDiacritics: cfg.StripDiacritics,
			CollapseRepeats: cfg.DeleteDuplicates,
		},
		langOpts: LangOptions{
			Negation:  cfg.Negation,
			Stemming:  cfg.Stemming,
			Stopwords: cfg.Stopwords,
		},
	}

	if cfg.Lang != "" && a.usesLanguage() {
		lang, err := NewLangTransform(cfg.Lang, res)
		if err != nil {
			return nil, err
		}
		a.lang = lang
	}
	return a, nil
}

func (a *Analyzer) usesLanguage() bool {
	return a.langOpts.Negation || a.langOpts.Stemming || a.langOpts.Stopwords != OptionNone
}

// Config returns a copy of the analyzer's configuration.
func (a *Analyzer) Config() Config {
	return a.cfg.Clone()
}

// Transform runs every text stage and returns the normalized, delimiter-wrapped
// text the tokenizer consumes.
func (a *Analyzer) Transform(text string) string {
	if a.cfg.Lowercase {
		text = strings.ToLower(text)
	}
	text = a.tagger.TagEntities(text)
	text = Normalize(text, a.normOpts)
	text = a.tagger.TagEmoticons(text)
	if a.cfg.DeletePunctuation {
		text = DeletePunctuation(text, a.cfg.DeleteDuplicates)
	}
	if a.lang != nil {
		text = a.lang.Transform(text, a.langOpts)
	}
	return text
}

// Analyze returns the tokens of text.
func (a *Analyzer) Analyze(text string) []string {
	return Tokenize(a.Transform(text), a.cfg.TokenList)
}
