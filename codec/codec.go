// Package codec converts records and collection indexes to the bytes a store holds.
package codec

import (
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Serializer encodes values for storage and decodes them back.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON is the default serializer.
var JSON Serializer = jsonSerializer{}

// YAML stores values as YAML documents.
var YAML Serializer = yamlSerializer{}

type jsonSerializer struct{}

func (jsonSerializer) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	return b, errors.Wrap(err, "codec.JSON Marshal")
}

func (jsonSerializer) Unmarshal(data []byte, v any) error {
	return errors.Wrap(json.Unmarshal(data, v), "codec.JSON Unmarshal")
}

type yamlSerializer struct{}

func (yamlSerializer) Marshal(v any) ([]byte, error) {
	b, err := yaml.Marshal(v)
	return b, errors.Wrap(err, "codec.YAML Marshal")
}

func (yamlSerializer) Unmarshal(data []byte, v any) error {
	return errors.Wrap(yaml.Unmarshal(data, v), "codec.YAML Unmarshal")
}

// ByName returns the serializer registered under name ("json" or "yaml").
func ByName(name string) (Serializer, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "yaml":
		return YAML, nil
	default:
		return nil, errors.Errorf("codec: unknown serializer %q", name)
	}
}
