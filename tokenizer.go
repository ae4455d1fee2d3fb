package textmodel

import "strings"

// Tokenize expands normalized text into q-grams according to tokenList.
//
// TOKEN LIST SEMANTICS:
// ---------------------
// Every entry selects one family of tokens:
//
//	 k > 0  → character k-grams over the delimiter-wrapped text
//	-k < 0  → k consecutive words joined with the delimiter
//
// Example:
//
//	Tokenize("~buenos~dias~", []int{-1, 3})
//	// ["buenos", "dias", "~bu", "bue", "uen", ..., "as~"]
//
// Tokens are emitted in token-list order, then left to right. Duplicates are
// kept since term frequencies depend on them. A k longer than the text yields
// nothing for that entry.
func Tokenize(text string, tokenList []int) []string {
	var (
		tokens []string
		runes  []rune
		words  []string
		split  bool
	)

	for _, q := range tokenList {
		switch {
		case q > 0:
			if runes == nil {
				runes = []rune(text)
			}
			tokens = appendCharGrams(tokens, runes, q)
		case q < 0:
			// The word split is shared by every negative entry.
			if !split {
				words = splitWords(text)
				split = true
			}
			tokens = appendWordGrams(tokens, words, -q)
		}
	}
	return tokens
}

func appendCharGrams(tokens []string, runes []rune, q int) []string {
	for i := 0; i+q <= len(runes); i++ {
		tokens = append(tokens, string(runes[i:i+q]))
	}
	return tokens
}

func appendWordGrams(tokens []string, words []string, q int) []string {
	if q == 1 {
		return append(tokens, words...)
	}
	for i := 0; i+q <= len(words); i++ {
		tokens = append(tokens, strings.Join(words[i:i+q], string(Delimiter)))
	}
	return tokens
}
