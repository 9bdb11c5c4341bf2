package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paul-hammant/RexxJS-sub005"
)

const moduleExtension = ".rexx"

// moduleLoader resolves REQUIRE names to .rexx files under the module paths.
// A library lists the libraries it needs with "-- @dependency NAME" lines.
type moduleLoader struct {
	paths []string
}

func (l *moduleLoader) LoadModule(_ context.Context, name string) (*rexx.Module, error) {
	path, err := l.lookupModule(name)
	if err != nil {
		return nil, err
	}
	cnt, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src := string(cnt)
	if _, err := rexx.Parse(src); err != nil {
		return nil, &scriptParseError{path, src, err}
	}
	return &rexx.Module{Source: src, Dependencies: moduleDependencies(src)}, nil
}

func (l *moduleLoader) lookupModule(name string) (string, error) {
	name = strings.Trim(name, `"'`)
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	base := strings.TrimSuffix(name, moduleExtension)
	for _, dir := range l.paths {
		for _, path := range []string{
			filepath.Join(dir, base+moduleExtension),
			filepath.Join(dir, base, filepath.Base(base)+moduleExtension),
			filepath.Join(dir, strings.ToLower(base)+moduleExtension),
		} {
			if _, err := os.Stat(path); err == nil {
				return filepath.Clean(path), nil
			}
		}
	}
	return "", fmt.Errorf("module not found: %q", name)
}

func moduleDependencies(src string) []string {
	var deps []string
	s := bufio.NewScanner(strings.NewReader(src))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		rest, ok := strings.CutPrefix(line, "--")
		if !ok {
			continue
		}
		rest, ok = strings.CutPrefix(strings.TrimSpace(rest), "@dependency")
		if !ok {
			continue
		}
		for _, dep := range strings.Fields(rest) {
			deps = append(deps, strings.Trim(dep, `"',`))
		}
	}
	return deps
}
