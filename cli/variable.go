package cli

import (
	"encoding/json"
	"sort"
	"strings"
)

// variable is a --var binding. The value is parsed as JSON when possible,
// otherwise used as a raw string.
type variable struct {
	name string
	raw  string
}

func variablesFromFlags(m map[string]string) []*variable {
	vars := make([]*variable, 0, len(m))
	for k, v := range m {
		vars = append(vars, &variable{name: strings.ToUpper(k), raw: v})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })
	return vars
}

func (v *variable) value() (any, error) {
	var x anyWithOrderedKeys
	if !json.Valid([]byte(v.raw)) {
		return v.raw, nil
	}
	if err := json.Unmarshal([]byte(v.raw), &x); err != nil {
		return v.raw, nil
	}
	return x.value()
}
