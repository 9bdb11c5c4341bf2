package rexx

import (
	"context"
)

// SharingPolicy selects how INTERPRET code sees the caller's variables.
type SharingPolicy int

// Sharing policies.
const (
	// PolicyFull runs the code against the caller's own variables.
	PolicyFull SharingPolicy = iota
	// PolicyIsolated runs the code against an empty pool.
	PolicyIsolated
	// PolicyIsolatedIO copies the imported names in and the exported names
	// back out.
	PolicyIsolatedIO
)

func (p SharingPolicy) String() string {
	switch p {
	case PolicyIsolated:
		return "ISOLATED"
	case PolicyIsolatedIO:
		return "ISOLATED-IO"
	default:
		return "FULL"
	}
}

// interpret parses code and runs it as a nested program. The nested run
// shares the caller's dispatcher, queue and NO-INTERPRET latch. It starts
// from a copy of the caller's ADDRESS, NUMERIC and interpolation settings, so
// changes it makes to them stay local. Errors surface at the INTERPRET
// statement of the caller unless the code installs its own SIGNAL ON.
func (e *engine) interpret(ctx context.Context, code string, ic *interpretClause) error {
	if e.run.noInterpret {
		return securityError("INTERPRET")
	}
	prog, err := Parse(code)
	if err != nil {
		return asRuntimeError(err)
	}
	env := e.env
	switch ic.Policy {
	case PolicyIsolated:
		env = NewEnvironment()
	case PolicyIsolatedIO:
		env = NewEnvironment()
		for _, name := range ic.Imports {
			if v, ok := e.env.Get(name); ok {
				env.Set(name, v)
			}
		}
	}
	e.run.log.Debug().Str("policy", ic.Policy.String()).Int("line", e.line).Msg("interpret")
	child := e.child(prog, env)
	_, err = child.execute(ctx)
	if ic.Policy == PolicyIsolatedIO {
		for _, name := range ic.Exports {
			if v, ok := env.Get(name); ok {
				e.env.Set(name, v)
			} else {
				e.env.Drop(name)
			}
		}
	}
	return err
}
