// Package config loads the external configuration document described in
// spec.md §6: the key-value document external collaborators (language
// presets, editor integrations) use to steer the high-level transpiler and
// the grammar's start rule, without the core depending on any of those
// collaborators. The core itself never reads this file — cmd/parsercraft
// loads it and passes the resulting maps into the backend it constructs.
package config

import (
	"encoding/json"
	"fmt"
	"io"
)

// Config is the external configuration document, per spec.md §6. Every
// field is optional; the zero value configures nothing.
type Config struct {
	// KeywordMap is applied by the high-level transpiler to identifier
	// leaves, e.g. {"si": "if"}.
	KeywordMap map[string]string `json:"keyword_map"`
	// FunctionMap is applied by the high-level transpiler to
	// call-position identifiers.
	FunctionMap map[string]string `json:"function_map"`
	// OperatorMap is applied to operator leaves.
	OperatorMap map[string]string `json:"operator_map"`
	// StartRule overrides the grammar's default start rule.
	StartRule string `json:"start_rule"`
}

// Load reads a JSON configuration document from r. An empty document is
// valid and yields a zero Config.
func Load(r io.Reader) (*Config, error) {
	dec := json.NewDecoder(r)
	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
