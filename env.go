package rexx

import (
	"strconv"
	"strings"
)

// Environment is a case-insensitive variable pool.
//
// A call frame is a transparent child: names it does not bind itself (the
// ARG pseudo-array) are read from and written to the parent, so subroutines
// share the caller's pool. An isolated environment has no parent at all.
type Environment struct {
	parent      *Environment
	transparent bool
	vars        map[string]*binding
	order       []string
}

type binding struct {
	name  string
	value any
}

// NewEnvironment returns an empty, isolated environment.
func NewEnvironment() *Environment {
	return &Environment{vars: map[string]*binding{}}
}

// newFrame returns a transparent child for a CALL frame.
func (e *Environment) newFrame() *Environment {
	return &Environment{parent: e, transparent: true, vars: map[string]*binding{}}
}

func canonical(name string) string {
	return strings.ToUpper(name)
}

// Get returns the value bound to name. A compound name that is not bound
// falls back to its stem default ("A." for "A.X") when one is set.
func (e *Environment) Get(name string) (any, bool) {
	key := canonical(name)
	if v, ok := e.lookup(key); ok {
		return v, true
	}
	if i := strings.IndexByte(key, '.'); i >= 0 && i < len(key)-1 {
		return e.lookup(key[:i+1])
	}
	return nil, false
}

func (e *Environment) lookup(key string) (any, bool) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.vars[key]; ok {
			return b.value, true
		}
		if !env.transparent {
			break
		}
	}
	return nil, false
}

// Set binds name to v. Setting a stem ("A.") also drops the compound
// variables under it so the new default applies to all of them.
func (e *Environment) Set(name string, v any) {
	key := canonical(name)
	if b, ok := e.vars[key]; ok {
		b.value = v
		return
	}
	if e.transparent && e.parent != nil {
		e.parent.Set(name, v)
		return
	}
	if strings.HasSuffix(key, ".") && strings.Count(key, ".") == 1 {
		e.dropPrefix(key)
	}
	e.setLocal(name, v)
}

func (e *Environment) setLocal(name string, v any) {
	key := canonical(name)
	if b, ok := e.vars[key]; ok {
		b.value = v
		return
	}
	e.vars[key] = &binding{name, v}
	e.order = append(e.order, key)
}

// Drop unbinds name.
func (e *Environment) Drop(name string) {
	key := canonical(name)
	if _, ok := e.vars[key]; ok {
		delete(e.vars, key)
		for i, k := range e.order {
			if k == key {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
		return
	}
	if e.transparent && e.parent != nil {
		e.parent.Drop(name)
	}
}

func (e *Environment) dropPrefix(prefix string) {
	order := e.order[:0]
	for _, k := range e.order {
		if strings.HasPrefix(k, prefix) {
			delete(e.vars, k)
		} else {
			order = append(order, k)
		}
	}
	e.order = order
}

// GetStem returns the values of prefix.1 .. prefix.N. N is taken from
// prefix.0 when it holds a whole number, otherwise the scan stops at the
// first unset index. The engine never maintains prefix.0 itself.
func (e *Environment) GetStem(prefix string) []any {
	prefix = strings.TrimSuffix(prefix, ".") + "."
	if v, ok := e.lookup(canonical(prefix + "0")); ok {
		if n, ok := toInt(v); ok && n >= 0 {
			vs := make([]any, n)
			for i := range vs {
				vs[i], _ = e.Get(prefix + strconv.Itoa(i+1))
			}
			return vs
		}
	}
	var vs []any
	for i := 1; ; i++ {
		v, ok := e.lookup(canonical(prefix + strconv.Itoa(i)))
		if !ok {
			return vs
		}
		vs = append(vs, v)
	}
}

// Names returns the visible variable names in first-seen order with their
// first-seen spelling.
func (e *Environment) Names() []string {
	var chain []*Environment
	for env := e; env != nil; env = env.parent {
		chain = append(chain, env)
		if !env.transparent {
			break
		}
	}
	seen := map[string]bool{}
	var names []string
	for i := len(chain) - 1; i >= 0; i-- {
		for _, k := range chain[i].order {
			if !seen[k] {
				seen[k] = true
				names = append(names, chain[i].vars[k].name)
			}
		}
	}
	return names
}

// Snapshot copies the visible variables into an object. Arrays and objects
// are shared, not copied.
func (e *Environment) Snapshot() *Object {
	o := NewObject()
	for _, name := range e.Names() {
		v, _ := e.lookup(canonical(name))
		o.Set(name, v)
	}
	return o
}
