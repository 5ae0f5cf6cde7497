package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// RuleImpactBinding is the name under which the rule impact score is exposed
// to formula coefficients. It shadows an input of the same name.
const RuleImpactBinding = "rule_impact_score"

// ValidateInput checks that every key is a usable identifier and every value
// is finite.
func ValidateInput(input map[string]float64) error {
	for _, name := range SortedKeys(input) {
		if !IsIdentifier(name) {
			return NewInvalidInputError("input", fmt.Sprintf("%q is not a valid metric name", name))
		}
		v := input[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewInvalidInputError("input."+name, "value must be a finite number")
		}
	}
	return nil
}

// CloneInput returns a copy of input. A nil map becomes an empty map.
func CloneInput(input map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(input))
	for k, v := range input {
		out[k] = v
	}
	return out
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HashInput returns the hex sha256 of the canonical JSON encoding of input.
// encoding/json sorts map keys, so equal maps hash equally.
func HashInput(input map[string]float64) (string, error) {
	if input == nil {
		input = map[string]float64{}
	}
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to encode input: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// IsIdentifier reports whether s can be referenced from an expression.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !letter && (i == 0 || c < '0' || c > '9') {
			return false
		}
	}
	switch s {
	case "and", "or", "not", "true", "false":
		return false
	}
	return true
}
