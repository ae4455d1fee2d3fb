package textmodel

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ═══════════════════════════════════════════════════════════════════════════════
// A Config fixes every knob of the text pipeline. The search engine treats it as
// an immutable value: each edit starts from Clone() so the token list is never
// shared between two configurations.
//
// Parameter categories:
//   - booleans:     del_diac, del_dup, del_punc, lc, negation, stemming
//   - categorical:  num_option, url_option, usr_option, emo_option, stopwords
//                   (delete | group | none) and weighting (tfidf | tf)
//   - token list:   token_list, signed q-gram sizes (-k word k-grams, +k char k-grams)
//
// The language tag and the pruning controls are carried along but are never
// mutated by the neighbour expander.
// ═══════════════════════════════════════════════════════════════════════════════

var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Option is the three-way policy applied to entities, emoticons and stopwords.
type Option string

const (
	OptionDelete Option = "delete"
	OptionGroup  Option = "group"
	OptionNone   Option = "none"
)

// BasicOptions lists the values of Option in canonical order.
var BasicOptions = []string{string(OptionDelete), string(OptionGroup), string(OptionNone)}

// Weighting selects how term weights are derived from document frequencies.
type Weighting string

const (
	WeightingTFIDF Weighting = "tfidf" // tf * log2(N/df)
	WeightingTF    Weighting = "tf"    // tf only
)

// Weightings lists the supported weighting schemes.
var Weightings = []string{string(WeightingTFIDF), string(WeightingTF)}

// Config describes one point of the pipeline's configuration space.
type Config struct {
	StripDiacritics   bool `json:"del_diac"`
	DeleteDuplicates  bool `json:"del_dup"`
	DeletePunctuation bool `json:"del_punc"`
	Lowercase         bool `json:"lc"`

	NumOption Option `json:"num_option" validate:"oneof=delete group none"`
	URLOption Option `json:"url_option" validate:"oneof=delete group none"`
	UsrOption Option `json:"usr_option" validate:"oneof=delete group none"`
	EmoOption Option `json:"emo_option" validate:"oneof=delete group none"`

	Lang      string `json:"lang" validate:"omitempty,oneof=spanish english french"`
	Negation  bool   `json:"negation"`
	Stemming  bool   `json:"stemming"`
	Stopwords Option `json:"stopwords" validate:"oneof=delete group none"`

	Weighting Weighting `json:"weighting" validate:"oneof=tfidf tf"`
	TokenList []int     `json:"token_list" validate:"min=1,unique,dive,ne=0"`

	Threshold      float64 `json:"threshold" validate:"gte=0,lte=1"`
	TokenMinFilter float64 `json:"token_min_filter" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when nothing else is specified.
func DefaultConfig() Config {
	return Config{
		StripDiacritics:  true,
		DeleteDuplicates: true,
		Lowercase:        true,
		NumOption:        OptionGroup,
		URLOption:        OptionGroup,
		UsrOption:        OptionGroup,
		EmoOption:        OptionGroup,
		Stopwords:        OptionNone,
		Weighting:        WeightingTFIDF,
		TokenList:        []int{-2, -1, 3, 4},
	}
}

var validate = validator.New()

// Validate checks every field against its fixed option set.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	c.TokenList = append([]int(nil), c.TokenList...)
	return c
}

// Key returns the canonical key of the configuration: every key=value pair in
// name order, joined by "-". Two value-equal configurations share a key.
func (c Config) Key() string {
	pairs := c.pairs()
	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + pairs[name]
	}
	return strings.Join(parts, "-")
}

func (c Config) pairs() map[string]string {
	pairs := make(map[string]string, len(boolFields)+len(choiceFields)+4)
	for name, field := range boolFields {
		pairs[name] = strconv.FormatBool(*field(&c))
	}
	for name, field := range choiceFields {
		pairs[name] = field.get(&c)
	}
	pairs[tokenListField] = formatTokenList(c.TokenList)
	pairs["lang"] = c.Lang
	pairs["threshold"] = strconv.FormatFloat(c.Threshold, 'g', -1, 64)
	pairs["token_min_filter"] = strconv.FormatFloat(c.TokenMinFilter, 'g', -1, 64)
	return pairs
}

func formatTokenList(list []int) string {
	parts := make([]string, len(list))
	for i, q := range list {
		parts[i] = strconv.Itoa(q)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ───────────────────────────────────────────────────────────────────────────────
// Field table
// ───────────────────────────────────────────────────────────────────────────────
// The sampler and the neighbour expander address parameters by name. The tables
// below map each searchable name onto its struct field.

const tokenListField = "token_list"

var boolFields = map[string]func(*Config) *bool{
	"del_diac": func(c *Config) *bool { return &c.StripDiacritics },
	"del_dup":  func(c *Config) *bool { return &c.DeleteDuplicates },
	"del_punc": func(c *Config) *bool { return &c.DeletePunctuation },
	"lc":       func(c *Config) *bool { return &c.Lowercase },
	"negation": func(c *Config) *bool { return &c.Negation },
	"stemming": func(c *Config) *bool { return &c.Stemming },
}

type choiceField struct {
	get     func(*Config) string
	set     func(*Config, string)
	choices []string
}

func optionField(field func(*Config) *Option) choiceField {
	return choiceField{
		get:     func(c *Config) string { return string(*field(c)) },
		set:     func(c *Config, v string) { *field(c) = Option(v) },
		choices: BasicOptions,
	}
}

var choiceFields = map[string]choiceField{
	"num_option": optionField(func(c *Config) *Option { return &c.NumOption }),
	"url_option": optionField(func(c *Config) *Option { return &c.URLOption }),
	"usr_option": optionField(func(c *Config) *Option { return &c.UsrOption }),
	"emo_option": optionField(func(c *Config) *Option { return &c.EmoOption }),
	"stopwords":  optionField(func(c *Config) *Option { return &c.Stopwords }),
	"weighting": {
		get:     func(c *Config) string { return string(c.Weighting) },
		set:     func(c *Config, v string) { c.Weighting = Weighting(v) },
		choices: Weightings,
	},
}
