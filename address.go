package rexx

import (
	"context"
	"errors"
	"strings"
)

// RoutingForm is the shape in which a command reaches an ADDRESS target.
type RoutingForm int

// Routing forms.
const (
	InlineQuoted RoutingForm = iota + 1
	HeredocBlock
	LinesCapture
	FunctionCall
)

func (f RoutingForm) String() string {
	switch f {
	case InlineQuoted:
		return "InlineQuoted"
	case HeredocBlock:
		return "HeredocBlock"
	case LinesCapture:
		return "LinesCapture"
	case FunctionCall:
		return "FunctionCall"
	default:
		return "RoutingForm(?)"
	}
}

// DefaultAddress is the target commands go to before any ADDRESS statement.
const DefaultAddress = "SYSTEM"

// AddressRequest is one dispatch to a handler. Command holds the raw text of
// the string forms; Operation and Params are set for FunctionCall.
type AddressRequest struct {
	Target    string
	Form      RoutingForm
	Command   string
	Lines     int
	Operation string
	Params    *Object
	// Lookup reads a variable of the calling script.
	Lookup func(name string) (any, bool)
}

// AddressResult is what a handler reports. A non-zero RC is not an error:
// the script sees it through RC, RESULT and ERRORTEXT.
type AddressResult struct {
	RC        int
	Result    any
	ErrorText string
}

// AddressHandler executes commands for an ADDRESS target. Dispatch may block;
// the script waits for it. A handler enforces its own timeouts and reports
// them by returning an error wrapping context.DeadlineExceeded.
type AddressHandler interface {
	Dispatch(ctx context.Context, req *AddressRequest) (*AddressResult, error)
}

// AddressHandlerFunc adapts a function to AddressHandler.
type AddressHandlerFunc func(ctx context.Context, req *AddressRequest) (*AddressResult, error)

// Dispatch calls f.
func (f AddressHandlerFunc) Dispatch(ctx context.Context, req *AddressRequest) (*AddressResult, error) {
	return f(ctx, req)
}

// RemoteAddressFactory builds a handler for an `ADDRESS "https://..."`
// statement. The transport is up to the host.
type RemoteAddressFactory func(url string) (AddressHandler, error)

func isRemoteTarget(s string) bool {
	s = strings.ToLower(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// dispatcher maps case-insensitive target names to handlers. Each run has
// its own copy so remote registrations stay local to the run.
type dispatcher struct {
	handlers map[string]AddressHandler
	remote   RemoteAddressFactory
}

func newDispatcher(handlers map[string]AddressHandler, remote RemoteAddressFactory) *dispatcher {
	d := &dispatcher{handlers: make(map[string]AddressHandler, len(handlers)), remote: remote}
	for k, h := range handlers {
		d.handlers[k] = h
	}
	return d
}

func (d *dispatcher) register(name string, h AddressHandler) {
	d.handlers[strings.ToUpper(name)] = h
}

func (d *dispatcher) lookup(name string) (AddressHandler, bool) {
	h, ok := d.handlers[strings.ToUpper(name)]
	return h, ok
}

func (d *dispatcher) names() []string {
	names := make([]string, 0, len(d.handlers))
	for k := range d.handlers {
		names = append(names, k)
	}
	return names
}

// registerRemote registers a remote target under alias (or the URL) and
// returns the name it was registered as.
func (d *dispatcher) registerRemote(url, alias string) (string, error) {
	name := alias
	if name == "" {
		name = url
	}
	if _, ok := d.lookup(name); ok {
		return name, nil
	}
	if d.remote == nil {
		err := newError(KindAddressDispatch, "remote ADDRESS targets are not enabled: %s", url)
		err.Command = url
		return "", err
	}
	h, err := d.remote(url)
	if err != nil {
		e := newError(KindAddressDispatch, "cannot connect ADDRESS %s: %s", url, err)
		e.Command, e.err = url, err
		return "", e
	}
	d.register(name, h)
	return name, nil
}

func (d *dispatcher) dispatch(ctx context.Context, req *AddressRequest) (*AddressResult, error) {
	h, ok := d.lookup(req.Target)
	if !ok {
		err := newError(KindAddressDispatch, "no handler for ADDRESS %s%s",
			req.Target, suggest(req.Target, d.names()))
		err.Function, err.Command = strings.ToUpper(req.Target), req.Command
		return nil, err
	}
	res, err := h.Dispatch(ctx, req)
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) {
			return nil, re
		}
		kind := KindAddressDispatch
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		e := newError(kind, "ADDRESS %s: %s", req.Target, err)
		e.Function, e.Command, e.err = strings.ToUpper(req.Target), req.Command, err
		return nil, e
	}
	if res == nil {
		res = &AddressResult{}
	}
	return res, nil
}
