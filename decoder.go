package rexx

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// orderedJSON decodes JSON while remembering object key order.
type orderedJSON struct {
	m *orderedmap.OrderedMap[string, orderedJSON]
	l []orderedJSON
	v any
}

func (v *orderedJSON) UnmarshalJSON(data []byte) error {
	data1 := bytes.TrimSpace(data)
	if len(data1) == 0 {
		return fmt.Errorf("empty JSON")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	switch data1[0] {
	case '{':
		v.m = orderedmap.New[string, orderedJSON]()
		return dec.Decode(&v.m)
	case '[':
		v.l = []orderedJSON{}
		return dec.Decode(&v.l)
	}

	return dec.Decode(&v.v)
}

func (v orderedJSON) value() (any, error) {
	switch {
	case v.m != nil:
		o := NewObject()
		for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
			x, err := pair.Value.value()
			if err != nil {
				return nil, err
			}
			o.Set(pair.Key, x)
		}
		return o, nil

	case v.l != nil:
		a := &Array{Items: make([]any, len(v.l))}
		for i, x := range v.l {
			y, err := x.value()
			if err != nil {
				return nil, err
			}
			a.Items[i] = y
		}
		return a, nil
	}

	return Normalize(v.v)
}

// parseJSON decodes s into engine values, keeping object key order.
func parseJSON(s string) (any, error) {
	var v orderedJSON
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v.value()
}
