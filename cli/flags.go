package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// flagField is one option of an options struct, described by its long, short
// and description tags.
type flagField struct {
	long, short, description string
	value                    reflect.Value
}

type flagSet struct {
	fields []*flagField
	long   map[string]*flagField
	short  map[string]*flagField
}

func newFlagSet(opts any) *flagSet {
	val := reflect.ValueOf(opts).Elem()
	typ := val.Type()
	fs := &flagSet{long: map[string]*flagField{}, short: map[string]*flagField{}}
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag
		f := &flagField{
			long:        tag.Get("long"),
			short:       tag.Get("short"),
			description: tag.Get("description"),
			value:       val.Field(i),
		}
		fs.fields = append(fs.fields, f)
		if f.long != "" {
			fs.long[f.long] = f
		}
		if f.short != "" {
			fs.short[f.short] = f
		}
	}
	return fs
}

// parseFlags sets the fields of opts from args and returns the arguments
// that are not flags. Everything after "--" is returned as is.
func parseFlags(args []string, opts any) ([]string, error) {
	fs := newFlagSet(opts)
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		var err error
		switch {
		case arg == "--":
			return append(rest, args[i+1:]...), nil
		case strings.HasPrefix(arg, "--"):
			name, value, inline := strings.Cut(arg[2:], "=")
			f, ok := fs.long[name]
			if !ok {
				return nil, fmt.Errorf("unknown flag `--%s'", name)
			}
			if inline {
				i, err = f.take("--"+name, args, i, &value)
			} else {
				i, err = f.take("--"+name, args, i, nil)
			}
		case isShortFlags(arg):
			i, err = fs.takeShort(arg, args, i)
		default:
			rest = append(rest, arg)
		}
		if err != nil {
			return nil, err
		}
	}
	return rest, nil
}

// isShortFlags reports whether arg looks like "-x" or a cluster "-xyz", so
// that "-" and negative numbers stay positional.
func isShortFlags(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	for _, c := range arg[1:] {
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

func (fs *flagSet) takeShort(arg string, args []string, i int) (int, error) {
	for j := 1; j < len(arg); j++ {
		opt := arg[j : j+1]
		f, ok := fs.short[opt]
		if !ok {
			return i, fmt.Errorf("unknown flag `-%s'", opt)
		}
		if f.value.Kind() != reflect.Bool && j+1 < len(arg) {
			value := arg[j+1:]
			return f.take("-"+opt, args, i, &value)
		}
		var err error
		if i, err = f.take("-"+opt, args, i, nil); err != nil {
			return i, err
		}
	}
	return i, nil
}

// take stores the flag's arguments, reading them from args after index i
// unless inline holds the "--name=value" form. It returns the index of the
// last argument consumed.
func (f *flagField) take(flag string, args []string, i int, inline *string) (int, error) {
	next := func() (string, error) {
		if inline != nil {
			v := *inline
			inline = nil
			return v, nil
		}
		if i+1 >= len(args) {
			return "", fmt.Errorf("expected argument for flag `%s'", flag)
		}
		i++
		return args[i], nil
	}
	switch f.value.Kind() {
	case reflect.Bool:
		if inline != nil {
			return i, fmt.Errorf("boolean flag `%s' cannot have an argument", flag)
		}
		f.value.SetBool(true)
	case reflect.String:
		s, err := next()
		if err != nil {
			return i, err
		}
		f.value.SetString(s)
	case reflect.Pointer:
		s, err := next()
		if err != nil {
			return i, err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return i, fmt.Errorf("invalid argument for flag `%s': %w", flag, err)
		}
		p := reflect.New(f.value.Type().Elem())
		p.Elem().SetInt(int64(n))
		f.value.Set(p)
	case reflect.Slice:
		s, err := next()
		if err != nil {
			return i, err
		}
		f.value.Set(reflect.Append(f.value, reflect.ValueOf(s)))
	case reflect.Map:
		k, err := next()
		if err != nil {
			return i, fmt.Errorf("expected 2 arguments for flag `%s'", flag)
		}
		v, err := next()
		if err != nil {
			return i, fmt.Errorf("expected 2 arguments for flag `%s'", flag)
		}
		if f.value.IsNil() {
			f.value.Set(reflect.MakeMap(f.value.Type()))
		}
		f.value.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(v))
	}
	return i, nil
}

// formatFlags renders the option table of the usage message. The last field
// is listed on its own as the help option.
func formatFlags(opts any) string {
	fs := newFlagSet(opts)
	var sb strings.Builder
	sb.WriteString("Command Options:\n")
	for i, f := range fs.fields {
		if i == len(fs.fields)-1 {
			sb.WriteString("\nHelp Option:\n")
		}
		var head strings.Builder
		if f.short != "" {
			head.WriteString("-" + f.short + ", ")
		} else {
			head.WriteString("    ")
		}
		head.WriteString("--" + f.long)
		switch f.value.Kind() {
		case reflect.Bool:
		case reflect.Map:
			head.WriteString(" name value")
		default:
			head.WriteString("=")
		}
		fmt.Fprintf(&sb, "  %-26s%s\n", head.String(), f.description)
	}
	return sb.String()
}
