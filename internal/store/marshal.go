package store

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Metadata is the free-form document attached to registry rows.
type Metadata map[string]any

func marshalMetadata(m Metadata) (string, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(raw), nil
}

func unmarshalMetadata(raw string) (Metadata, error) {
	if raw == "" {
		return Metadata{}, nil
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}

// Binding is a group binding document: placeholder slot to concrete
// series name.
type Binding map[string]string

func marshalBinding(b Binding) (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal binding: %w", err)
	}
	return string(raw), nil
}

func unmarshalBinding(raw string) (Binding, error) {
	var b Binding
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("unmarshal binding: %w", err)
	}
	return b, nil
}

// NormalizeName puts a series name into NFC so that visually
// identical names hit the same registry row regardless of how the
// client composed them.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}
