package rexx

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TypeOf returns the type name of v as reported by the TYPEOF function.
//
// The engine works with a closed set of value representations: nil (Null),
// bool, string, *apd.Decimal (Number), *Array and *Object. Any other type is
// rejected; host values are converted with Normalize before they reach the
// engine.
func TypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case *apd.Decimal:
		return "number"
	case string:
		return "string"
	case *Array:
		return "array"
	case *Object:
		return "object"
	default:
		panic(fmt.Sprintf("invalid type: %[1]T (%[1]v)", v))
	}
}

// Array is an ordered, 0-based list. Arrays are reference values: assigning
// an array to another variable aliases it.
type Array struct {
	Items []any
}

// NewArray returns an array holding items.
func NewArray(items ...any) *Array {
	return &Array{Items: items}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.Items)
}

// Get returns the element at i, or nil when i is out of range.
func (a *Array) Get(i int) any {
	if i < 0 || i >= len(a.Items) {
		return nil
	}
	return a.Items[i]
}

// Set stores v at i, growing the array with nulls when i is past the end.
func (a *Array) Set(i int, v any) {
	for len(a.Items) <= i {
		a.Items = append(a.Items, nil)
	}
	a.Items[i] = v
}

// Push appends v.
func (a *Array) Push(v any) {
	a.Items = append(a.Items, v)
}

// Pop removes and returns the last element.
func (a *Array) Pop() (any, bool) {
	if len(a.Items) == 0 {
		return nil, false
	}
	v := a.Items[len(a.Items)-1]
	a.Items = a.Items[:len(a.Items)-1]
	return v, true
}

// Object is an insertion-ordered string keyed map. Objects are reference
// values like arrays.
type Object struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{m: orderedmap.New[string, any]()}
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return o.m.Len()
}

// Get returns the value stored under k.
func (o *Object) Get(k string) (any, bool) {
	return o.m.Get(k)
}

// Set stores v under k. A new key is appended to the key order.
func (o *Object) Set(k string, v any) {
	o.m.Set(k, v)
}

// Delete removes k.
func (o *Object) Delete(k string) {
	o.m.Delete(k)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	ks := make([]string, 0, o.m.Len())
	for p := o.m.Oldest(); p != nil; p = p.Next() {
		ks = append(ks, p.Key)
	}
	return ks
}

// Range calls f for each entry in insertion order until f returns false.
func (o *Object) Range(f func(k string, v any) bool) {
	for p := o.m.Oldest(); p != nil; p = p.Next() {
		if !f(p.Key, p.Value) {
			return
		}
	}
}

// lookup finds k exactly, then case-insensitively.
func (o *Object) lookup(k string) (string, any, bool) {
	if v, ok := o.m.Get(k); ok {
		return k, v, true
	}
	for p := o.m.Oldest(); p != nil; p = p.Next() {
		if strings.EqualFold(p.Key, k) {
			return p.Key, p.Value, true
		}
	}
	return "", nil, false
}
