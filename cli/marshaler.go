package cli

import (
	"bytes"

	"github.com/hokaccha/go-prettyjson"
	"gopkg.in/yaml.v3"
)

type marshaler interface {
	Marshal(v any) ([]byte, error)
}

// jsonFormatter prints the variables of --dump-vars.
func jsonFormatter() *prettyjson.Formatter {
	f := prettyjson.NewFormatter()
	f.KeyColor = objectKeyColor
	f.StringColor = stringColor
	f.BoolColor = boolColor
	f.NumberColor = numberColor
	f.NullColor = nullColor
	f.DisabledColor = noColor
	return f
}

func yamlFormatter() *yamlMarshaler {
	return &yamlMarshaler{}
}

type yamlMarshaler struct{}

func (m *yamlMarshaler) Marshal(v any) ([]byte, error) {
	var bs bytes.Buffer
	enc := yaml.NewEncoder(&bs)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return bs.Bytes(), nil
}
