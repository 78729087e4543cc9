// Package config loads trigger definitions from JSON or YAML files and,
// optionally, watches them for changes so a running scheduler can be kept
// in sync without a restart.
package config

import (
	"bytes"
	"encoding/json"
)

// TriggerDefinition is one entry in a trigger file. Expression is parsed by
// pkg/chronex; ID is generated if omitted.
type TriggerDefinition struct {
	ID         string            `json:"id,omitempty"`
	Expression string            `json:"expression"`
	Enabled    *bool             `json:"enabled,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// TriggerFile is the top-level shape of a trigger definitions file.
type TriggerFile struct {
	Triggers []TriggerDefinition `json:"triggers"`
}

// UnmarshalJSON disallows unknown top-level keys so a typo in a hand-edited
// trigger file fails loudly instead of being silently ignored.
func (f *TriggerFile) UnmarshalJSON(b []byte) error {
	type tmp TriggerFile
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var t tmp
	if err := dec.Decode(&t); err != nil {
		return err
	}
	*f = TriggerFile(t)
	return nil
}
