package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/paul-hammant/RexxJS-sub005"
)

// fileConfig is the YAML file given with --config. Flags override it.
type fileConfig struct {
	Digits      *int           `yaml:"digits"`
	Fuzz        *int           `yaml:"fuzz"`
	Form        string         `yaml:"form"`
	Trace       string         `yaml:"trace"`
	Address     string         `yaml:"address"`
	ModulePaths []string       `yaml:"module_paths"`
	Variables   *orderedValues `yaml:"variables"`
}

type orderedValues = orderedmap.OrderedMap[string, anyWithOrderedKeys]

func loadConfig(fname string) (*fileConfig, error) {
	cnt, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(cnt))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &yamlParseError{fname, string(cnt), err}
	}
	return &cfg, nil
}

func (cfg *fileConfig) numeric() (rexx.NumericSettings, error) {
	n := rexx.DefaultNumeric()
	if cfg.Digits != nil {
		n.Digits = *cfg.Digits
	}
	if cfg.Fuzz != nil {
		n.Fuzz = *cfg.Fuzz
	}
	switch strings.ToUpper(cfg.Form) {
	case "", "SCIENTIFIC":
	case "ENGINEERING":
		n.Form = rexx.FormEngineering
	default:
		return n, fmt.Errorf("invalid NUMERIC FORM: %q", cfg.Form)
	}
	if n.Digits < 1 || n.Digits > rexx.MaxDigits {
		return n, fmt.Errorf("invalid NUMERIC DIGITS: %d", n.Digits)
	}
	if n.Fuzz < 0 || n.Fuzz >= n.Digits {
		return n, fmt.Errorf("invalid NUMERIC FUZZ: %d", n.Fuzz)
	}
	return n, nil
}

func (cfg *fileConfig) variables() (map[string]any, error) {
	vars := map[string]any{}
	if cfg.Variables == nil {
		return vars, nil
	}
	for pair := cfg.Variables.Oldest(); pair != nil; pair = pair.Next() {
		v, err := pair.Value.value()
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", pair.Key, err)
		}
		vars[strings.ToUpper(pair.Key)] = v
	}
	return vars, nil
}
