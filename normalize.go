package textmodel

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Delimiter separates words in normalized text and wraps every document, so
// character q-grams see the document boundaries.
const Delimiter = '~'

// NormalizeOptions selects the character-level clean-ups applied by Normalize.
type NormalizeOptions struct {
	StripDiacritics bool // drop combining diacritical marks
	CollapseRepeats bool // "hooolaaa" → "hola"
}

// Normalize canonicalizes text at the character level.
//
// The text is decomposed (NFD) so accents become separate combining marks,
// whitespace turns into the delimiter, and the result is wrapped with a
// delimiter on both sides:
//
//	Normalize("Canción  triste", {StripDiacritics: true, CollapseRepeats: true})
//	// "~Cancion~triste~"
//
// Repeats are collapsed on the decomposed, substituted stream, so "á á" with
// stripped diacritics compares equal characters "a".
func Normalize(text string, opts NormalizeOptions) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteRune(Delimiter)

	prev := Delimiter
	wrote := false
	for _, r := range norm.NFD.String(text) {
		if opts.StripDiacritics && isCombiningMark(r) {
			continue
		}
		if isBlank(r) {
			r = Delimiter
		}
		if opts.CollapseRepeats && r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
		wrote = true
	}

	if !(opts.CollapseRepeats && wrote && prev == Delimiter) {
		b.WriteRune(Delimiter)
	}
	return b.String()
}

// DeletePunctuation drops punctuation runes from normalized text, keeping the
// tag markers _ @ # and the delimiter. It runs after emoticon tagging so codes
// like ":)" are still there to be matched. With collapse set, runes that only
// became adjacent through a deletion collapse as well:
//
//	DeletePunctuation("~no~!~son~", true)  // "~no~son~"
//	DeletePunctuation("~no~!~son~", false) // "~no~~son~"
func DeletePunctuation(text string, collapse bool) string {
	var b strings.Builder
	b.Grow(len(text))

	prev := rune(-1)
	deleted := false
	for _, r := range text {
		if isPunctuation(r) {
			deleted = true
			continue
		}
		if collapse && deleted && r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
		deleted = false
	}

	out := b.String()
	if out == string(Delimiter) {
		return out + out
	}
	return out
}

// isCombiningMark reports runes of the Combining Diacritical Marks block.
func isCombiningMark(r rune) bool {
	return r >= 0x0300 && r <= 0x036F
}

func isBlank(r rune) bool {
	switch r {
	case '\n', '\r', ' ', '\t':
		return true
	}
	return false
}

// isPunctuation keeps the characters tag markers are made of.
func isPunctuation(r rune) bool {
	switch r {
	case '_', '@', '#', Delimiter:
		return false
	}
	return unicode.IsPunct(r)
}
