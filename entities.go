package textmodel

import (
	"regexp"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ENTITY TAGGING
// ═══════════════════════════════════════════════════════════════════════════════
// Short social-media texts are full of surface forms that carry little lexical
// information individually but a lot as a class: every number, every link, every
// @mention. Each class follows the same three-way policy:
//
//	none   → leave the text untouched
//	delete → remove the match
//	group  → replace the match with a class token (_num, _url, _usr)
//
// EXAMPLE (all classes grouped):
// ------------------------------
// Input:  "@ana mira http://t.co/x 3.5 veces"
// Output: "_usr mira _url _num veces"
//
// The passes run in a fixed order: numbers, URLs, users. The emoticon pass runs
// separately on normalized text (see Emoticons) since its lexicon contains
// characters that normalization may rewrite.
// ═══════════════════════════════════════════════════════════════════════════════

const (
	NumToken = "_num"
	URLToken = "_url"
	UsrToken = "_usr"
)

var (
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
	urlPattern    = regexp.MustCompile(`https?://[^\s~]+`)
	userPattern   = regexp.MustCompile(`@[^\s~]+`)
)

// TagOptions holds the policy for every entity class.
type TagOptions struct {
	Num Option
	URL Option
	Usr Option
	Emo Option
}

// Tagger rewrites entities according to TagOptions.
type Tagger struct {
	opts      TagOptions
	emoticons *Emoticons
}

// NewTagger creates a tagger. emoticons may be nil when Emo is none.
func NewTagger(opts TagOptions, emoticons *Emoticons) *Tagger {
	return &Tagger{opts: opts, emoticons: emoticons}
}

// Tag applies the entity pass followed by the emoticon pass.
func (t *Tagger) Tag(text string) string {
	return t.TagEmoticons(t.TagEntities(text))
}

// TagEntities rewrites numbers, URLs and users, in that order.
func (t *Tagger) TagEntities(text string) string {
	text = replaceEntity(text, numberPattern, t.opts.Num, NumToken)
	text = replaceEntity(text, urlPattern, t.opts.URL, URLToken)
	return replaceEntity(text, userPattern, t.opts.Usr, UsrToken)
}

// TagEmoticons rewrites emoticons, emoji and emotion words.
func (t *Tagger) TagEmoticons(text string) string {
	if t.emoticons == nil {
		return text
	}
	return t.emoticons.Replace(text, t.opts.Emo)
}

func replaceEntity(text string, pattern *regexp.Regexp, opt Option, token string) string {
	switch opt {
	case OptionDelete:
		return pattern.ReplaceAllLiteralString(text, "")
	case OptionGroup:
		return pattern.ReplaceAllLiteralString(text, token)
	default:
		return text
	}
}
