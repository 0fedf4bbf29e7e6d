package hcl

import (
	"fmt"
	"maps"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/zerr"
)

// ErrUnsupportedValue is returned for values that have no JSON-like form.
var ErrUnsupportedValue = zerr.New("unsupported value")

// ToGo converts a cty.Value to the JSON-like Go values used in settings:
// string, float64, bool, map[string]any, []any and nil.
func ToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			native, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = native
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := []any{}
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			native, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	}
	return nil, zerr.With(zerr.Wrap(ErrUnsupportedValue, "to go"), "type", ty.FriendlyName())
}

// FromGo converts a JSON-like Go value to a cty.Value.
func FromGo(data any) (cty.Value, error) {
	switch v := data.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case bool:
		return cty.BoolVal(v), nil
	case map[string]any:
		if len(v) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(v))
		for _, key := range slices.Sorted(maps.Keys(v)) {
			c, err := FromGo(v[key])
			if err != nil {
				return cty.NilVal, err
			}
			attrs[key] = c
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		if len(v) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(v))
		for _, e := range v {
			c, err := FromGo(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, c)
		}
		return cty.TupleVal(elems), nil
	}
	return cty.NilVal, zerr.With(zerr.Wrap(ErrUnsupportedValue, "from go"), "type", fmt.Sprintf("%T", data))
}
