package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleDependencies(t *testing.T) {
	src := "-- @dependency util, \"json\"\n" +
		"say 'x' -- @dependency ignored\n" +
		"  --   @dependency  strings\n" +
		"/* @dependency no */\n"
	assert.Equal(t, []string{"util", "json", "strings"}, moduleDependencies(src))
	assert.Nil(t, moduleDependencies("exit\n"))
}

func TestModuleLoader(t *testing.T) {
	l := &moduleLoader{paths: []string{"nowhere", "testdata"}}

	m, err := l.LoadModule(context.Background(), "greet")
	require.NoError(t, err)
	assert.Equal(t, []string{"util"}, m.Dependencies)
	assert.Contains(t, m.Source, "greet:")

	path, err := l.lookupModule("'util.rexx'")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "util.rexx"), path)

	_, err = l.LoadModule(context.Background(), "missing")
	assert.EqualError(t, err, `module not found: "missing"`)
}
