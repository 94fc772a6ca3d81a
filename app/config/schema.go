package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema returns json schema of the config file, usable by editors for yaml completion and validation
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{FieldNameTag: "yaml", RequiredFromJSONSchemaTags: true, ExpandedStruct: true}
	schema := r.Reflect(&File{})
	schema.Title = "autoinst configuration"
	schema.Description = "Defaults for the twitch drop automator installer, command line and environment take precedence"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("can't marshal config schema: %w", err)
	}
	return data, nil
}
