package textmodel

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Result is a scored configuration. It marshals to a flat JSON object: the
// configuration fields next to the underscore-prefixed metadata.
//
// Example:
//
//	{"del_diac":true, ..., "token_list":[-1,3], "_score":0.71, "_accuracy":0.74, ...}
type Result struct {
	Config

	Score       float64 `json:"_score"`
	MacroF1     float64 `json:"_macro_f1"`
	WeightedF1  float64 `json:"_weighted_f1"`
	Accuracy    float64 `json:"_accuracy"`
	FitTime     float64 `json:"_fit_time"`     // seconds
	PredictTime float64 `json:"_predict_time"` // seconds
	RunID       string  `json:"_run,omitempty"`
}

// Digest returns a short stable identifier of the configuration.
func (c Config) Digest() string {
	hash := md5.Sum([]byte(c.Key()))
	return hex.EncodeToString(hash[:])
}

// sortResults orders results by descending score. Equal scores keep their
// relative order.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// TopResults returns at most n results from a ranked list.
//
// Example:
//
//	results = [R1, R2, R3, R4, R5]
//	TopResults(results, 3) → [R1, R2, R3]
func TopResults(results []Result, n int) []Result {
	if n <= 0 || n >= len(results) {
		return results
	}
	return results[:n]
}

// SaveResults writes a ranked list as an indented JSON array.
func SaveResults(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if results == nil {
		results = []Result{}
	}
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

// LoadResults reads a JSON array of results, or a single result object.
func LoadResults(r io.Reader) ([]Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}

	var results []Result
	if err := json.Unmarshal(data, &results); err == nil {
		return results, nil
	}

	var single Result
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return []Result{single}, nil
}
