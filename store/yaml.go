package store

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeYAML decodes a YAML document into the maps and slices a store is
// created from.
func DecodeYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("store: decode yaml: %w", err)
	}
	return v, nil
}

// EncodeYAML encodes a snapshot of a store, or a value read from one.
func EncodeYAML(v any) ([]byte, error) {
	out, err := yaml.Marshal(Unwrap(v))
	if err != nil {
		return nil, fmt.Errorf("store: encode yaml: %w", err)
	}
	return out, nil
}
