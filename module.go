package rexx

import (
	"context"
	"strings"
)

// Module is a library returned by a ModuleLoader. Source is REXX code run
// once per Run in a sandbox of its own; its labels become callable routines.
// Functions and Handlers are host extensions registered with it.
type Module struct {
	Source       string
	Dependencies []string
	Functions    []*Function
	Handlers     map[string]AddressHandler
}

// ModuleLoader resolves the names given to REQUIRE.
type ModuleLoader interface {
	LoadModule(ctx context.Context, name string) (*Module, error)
}

// ModuleLoaderFunc adapts a function to ModuleLoader.
type ModuleLoaderFunc func(ctx context.Context, name string) (*Module, error)

// LoadModule calls f.
func (f ModuleLoaderFunc) LoadModule(ctx context.Context, name string) (*Module, error) {
	return f(ctx, name)
}

type loadedModule struct {
	module *Module
	prog   *Program
}

// loadModule returns a parsed module, loading it once per Interpreter.
func (i *Interpreter) loadModule(ctx context.Context, name string) (*loadedModule, error) {
	key := strings.ToUpper(name)
	i.mu.Lock()
	if m, ok := i.modules[key]; ok {
		i.mu.Unlock()
		return m, nil
	}
	i.mu.Unlock()
	if i.loader == nil {
		return nil, newError(KindModule, "REQUIRE %s: no module loader", name)
	}
	mod, err := i.loader.LoadModule(ctx, name)
	if err != nil {
		e := newError(KindModule, "REQUIRE %s: %s", name, err)
		e.err = err
		return nil, e
	}
	if mod == nil {
		mod = &Module{}
	}
	prog, err := Parse(mod.Source)
	if err != nil {
		e := newError(KindModule, "REQUIRE %s: %s", name, err)
		e.err = err
		return nil, e
	}
	m := &loadedModule{mod, prog}
	i.mu.Lock()
	defer i.mu.Unlock()
	if x, ok := i.modules[key]; ok {
		return x, nil
	}
	i.modules[key] = m
	return m, nil
}

// require loads a library and its dependencies into the run. Loading is
// idempotent per run; a dependency cycle is a ModuleError.
func (e *engine) require(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	key := strings.ToUpper(name)
	r := e.run
	if r.libs[key] {
		return nil
	}
	for i, k := range r.loading {
		if k == key {
			chain := append(append([]string(nil), r.loading[i:]...), key)
			err := newError(KindModule, "circular dependency: %s", strings.Join(chain, " -> "))
			err.Function = key
			return err
		}
	}
	m, err := r.interp.loadModule(ctx, name)
	if err != nil {
		return err
	}
	r.loading = append(r.loading, key)
	defer func() { r.loading = r.loading[:len(r.loading)-1] }()
	for _, dep := range m.module.Dependencies {
		if err := e.require(ctx, dep); err != nil {
			return err
		}
	}
	for _, f := range m.module.Functions {
		r.funcs[strings.ToUpper(f.Name)] = f
	}
	for name, h := range m.module.Handlers {
		r.disp.register(name, h)
	}
	lib := newEngine(r, m.prog, NewEnvironment(), ExecutionContext{
		Address: DefaultAddress, Numeric: DefaultNumeric(), Pattern: DefaultPattern,
	})
	r.log.Debug().Str("module", key).Int("labels", len(m.prog.Labels)).Msg("require")
	if _, err := lib.execute(ctx); err != nil {
		if _, ok := err.(*exitSignal); !ok {
			return err
		}
	}
	for _, label := range m.prog.LabelNames() {
		k := strings.ToUpper(label)
		if _, ok := r.routines[k]; !ok {
			pc, _ := m.prog.Label(label)
			r.routines[k] = &libRoutine{engine: lib, pc: pc, lib: key}
		}
	}
	r.libs[key] = true
	return nil
}
