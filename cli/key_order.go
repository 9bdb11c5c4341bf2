package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/paul-hammant/RexxJS-sub005"
)

// anyWithOrderedKeys decodes JSON or YAML keeping the order of object keys,
// so that OBJECT_KEYS sees variables from the command line or a config file
// in the order they were written.
type anyWithOrderedKeys struct {
	m *orderedmap.OrderedMap[string, anyWithOrderedKeys]
	l []anyWithOrderedKeys
	v any
}

func (v *anyWithOrderedKeys) UnmarshalJSON(data []byte) error {
	data1 := bytes.TrimSpace(data)
	if len(data1) == 0 {
		return fmt.Errorf("empty JSON")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	switch data1[0] {
	case '{':
		v.m = orderedmap.New[string, anyWithOrderedKeys]()
		return dec.Decode(&v.m)
	case '[':
		v.l = []anyWithOrderedKeys{}
		return dec.Decode(&v.l)
	}
	return dec.Decode(&v.v)
}

func (v *anyWithOrderedKeys) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		v.m = orderedmap.New[string, anyWithOrderedKeys]()
		return value.Decode(&v.m)
	case yaml.SequenceNode:
		v.l = []anyWithOrderedKeys{}
		return value.Decode(&v.l)
	}
	return value.Decode(&v.v)
}

// value converts the decoded tree into script values.
func (v anyWithOrderedKeys) value() (any, error) {
	switch {
	case v.m != nil:
		o := rexx.NewObject()
		for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
			x, err := pair.Value.value()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", pair.Key, err)
			}
			o.Set(pair.Key, x)
		}
		return o, nil
	case v.l != nil:
		a := rexx.NewArray()
		for _, e := range v.l {
			x, err := e.value()
			if err != nil {
				return nil, err
			}
			a.Push(x)
		}
		return a, nil
	}
	return rexx.Normalize(v.v)
}
