package config

import (
	"github.com/goccy/go-yaml"
	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/v2"
)

type yamlParser struct{}

// YAMLParser returns a koanf.Parser backed by goccy/go-yaml.
func YAMLParser() koanf.Parser {
	return &yamlParser{}
}

func (p *yamlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	maps.IntfaceKeysToStrings(out)
	return out, nil
}

func (p *yamlParser) Marshal(o map[string]interface{}) ([]byte, error) {
	return yaml.Marshal(o)
}
