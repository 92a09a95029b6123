package features

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidDocument reports a features document that is not a JSON object of booleans.
var ErrInvalidDocument = errors.New("invalid features document")

// FeatureSet maps flag names to their enabled state. The zero value is an
// empty set. A FeatureSet is never modified after construction.
type FeatureSet struct {
	flags map[string]bool
}

// NewFeatureSet copies flags into a new FeatureSet.
func NewFeatureSet(flags map[string]bool) FeatureSet {
	cp := make(map[string]bool, len(flags))
	for k, v := range flags {
		cp[k] = v
	}
	return FeatureSet{flags: cp}
}

// Lookup returns the stored value for key and whether key is present.
func (s FeatureSet) Lookup(key string) (enabled, ok bool) {
	enabled, ok = s.flags[key]
	return enabled, ok
}

// Len returns the number of flags in the set.
func (s FeatureSet) Len() int { return len(s.flags) }

// Keys returns the flag names in sorted order.
func (s FeatureSet) Keys() []string {
	keys := make([]string, 0, len(s.flags))
	for k := range s.flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the underlying mapping.
func (s FeatureSet) Map() map[string]bool {
	out := make(map[string]bool, len(s.flags))
	for k, v := range s.flags {
		out[k] = v
	}
	return out
}

// Equal reports whether both sets hold exactly the same entries.
func (s FeatureSet) Equal(other FeatureSet) bool {
	if len(s.flags) != len(other.flags) {
		return false
	}
	for k, v := range s.flags {
		ov, ok := other.flags[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// ParseFeatureSet decodes a features document. The top-level value must be
// a JSON object and every value must be a JSON boolean; any other shape
// rejects the whole document.
func ParseFeatureSet(data []byte) (FeatureSet, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return FeatureSet{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if raw == nil {
		return FeatureSet{}, fmt.Errorf("%w: top-level value must be an object", ErrInvalidDocument)
	}

	flags := make(map[string]bool, len(raw))
	for key, value := range raw {
		switch string(bytes.TrimSpace(value)) {
		case "true":
			flags[key] = true
		case "false":
			flags[key] = false
		default:
			return FeatureSet{}, fmt.Errorf("%w: flag %q has non-boolean value %s", ErrInvalidDocument, key, valueSnippet(value))
		}
	}
	return FeatureSet{flags: flags}, nil
}

func valueSnippet(v []byte) string {
	const maxLen = 64
	s := strings.TrimSpace(string(v))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
