package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultFeature is granted when a license is created without explicit features.
const DefaultFeature = "full"

// Features is the capability tag set of a license, stored as a JSON array in a text column.
type Features []string

// DefaultFeatures returns a fresh copy of the default tag set.
func DefaultFeatures() Features {
	return Features{DefaultFeature}
}

// Normalize trims, drops empty and duplicate tags, and falls back to the defaults.
func (f Features) Normalize() Features {
	out := make(Features, 0, len(f))
	seen := make(map[string]struct{}, len(f))
	for _, tag := range f {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return DefaultFeatures()
	}
	return out
}

func (f Features) Value() (driver.Value, error) {
	if f == nil {
		f = DefaultFeatures()
	}
	b, err := json.Marshal([]string(f))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *Features) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*f = DefaultFeatures()
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("features: unsupported scan type %T", value)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		*f = DefaultFeatures()
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	*f = Features(tags)
	return nil
}

// Has reports whether tag is part of the set.
func (f Features) Has(tag string) bool {
	for _, candidate := range f {
		if candidate == tag {
			return true
		}
	}
	return false
}
