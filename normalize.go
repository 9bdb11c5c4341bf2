package rexx

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/modopayments/go-modo/v8"
	"github.com/modopayments/go-modo/v8/uuid"
)

// Normalize converts a host value into the engine's value set. Go integers,
// floats, json.Number and *big.Int become numbers, slices become arrays and
// string keyed maps become objects (keys sorted, since Go maps are unordered).
// UUIDs become their lowercase text and timestamps become Unix seconds.
// Values already in the engine's set are returned as they are.
func Normalize(v any) (any, error) {
	switch v := v.(type) {
	case nil, bool, string, *apd.Decimal, *Array, *Object:
		return v, nil
	case int:
		return newNumber(int64(v)), nil
	case int8:
		return newNumber(int64(v)), nil
	case int16:
		return newNumber(int64(v)), nil
	case int32:
		return newNumber(int64(v)), nil
	case int64:
		return newNumber(v), nil
	case uint:
		return numberFromString(strconv.FormatUint(uint64(v), 10))
	case uint8:
		return newNumber(int64(v)), nil
	case uint16:
		return newNumber(int64(v)), nil
	case uint32:
		return newNumber(int64(v)), nil
	case uint64:
		return numberFromString(strconv.FormatUint(v, 10))
	case float32:
		return normalizeFloat(float64(v))
	case float64:
		return normalizeFloat(v)
	case json.Number:
		return numberFromString(v.String())
	case *big.Int:
		return numberFromString(v.String())
	case uuid.UUID:
		return v.String(), nil
	case uuid.NullUUID:
		if !v.Valid {
			return nil, nil
		}
		return v.UUID.String(), nil
	case time.Time:
		return newNumber(v.Unix()), nil
	case modo.Timestamp:
		return newNumber(v.Unix()), nil
	case []any:
		a := &Array{Items: make([]any, len(v))}
		for i, x := range v {
			y, err := Normalize(x)
			if err != nil {
				return nil, err
			}
			a.Items[i] = y
		}
		return a, nil
	case map[string]any:
		o := NewObject()
		for _, k := range sortedKeys(v) {
			y, err := Normalize(v[k])
			if err != nil {
				return nil, err
			}
			o.Set(k, y)
		}
		return o, nil
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Ptr:
			if rv.IsNil() {
				return nil, nil
			}
			return Normalize(rv.Elem().Interface())
		case reflect.Slice, reflect.Array:
			a := &Array{Items: make([]any, rv.Len())}
			for i := 0; i < rv.Len(); i++ {
				y, err := Normalize(rv.Index(i).Interface())
				if err != nil {
					return nil, err
				}
				a.Items[i] = y
			}
			return a, nil
		case reflect.String:
			return rv.String(), nil
		}
		return nil, fmt.Errorf("cannot convert %T to a REXX value", v)
	}
}

func normalizeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("cannot convert %v to a REXX number", f)
	}
	return numberFromString(strconv.FormatFloat(f, 'g', -1, 64))
}

func numberFromString(s string) (any, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Export converts an engine value into plain Go values: numbers become
// json.Number, arrays []any and objects map[string]any.
func Export(v any) any {
	switch v := v.(type) {
	case *apd.Decimal:
		return json.Number(v.String())
	case *Array:
		xs := make([]any, len(v.Items))
		for i, x := range v.Items {
			xs[i] = Export(x)
		}
		return xs
	case *Object:
		m := make(map[string]any, v.Len())
		v.Range(func(k string, x any) bool {
			m[k] = Export(x)
			return true
		})
		return m
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
