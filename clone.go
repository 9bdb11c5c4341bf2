package rexx

// clone returns a deep copy of v. Scalars are immutable and returned as is.
func clone(v any) any {
	switch v := v.(type) {
	case *Object:
		u := NewObject()
		v.Range(func(k string, x any) bool {
			u.Set(k, clone(x))
			return true
		})
		return u
	case *Array:
		u := &Array{Items: make([]any, len(v.Items))}
		for i, x := range v.Items {
			u.Items[i] = clone(x)
		}
		return u
	default:
		return v
	}
}
