package units

import (
	"fmt"
	"math/big"
	"time"

	"fortio.org/safecast"
	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/zerr"
)

// toCty converts decoded YAML, TOML or HCL data into a cty value.
func toCty(v any) (cty.Value, error) {
	switch val := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return val, nil
	case string:
		return cty.StringVal(val), nil
	case bool:
		return cty.BoolVal(val), nil
	case int:
		return cty.NumberIntVal(int64(val)), nil
	case int64:
		return cty.NumberIntVal(val), nil
	case uint64:
		return cty.NumberUIntVal(val), nil
	case float64:
		return cty.NumberFloatVal(val), nil
	case time.Time:
		return cty.StringVal(val.Format(time.RFC3339)), nil
	case []string:
		elems := make([]any, len(val))
		for i, s := range val {
			elems[i] = s
		}
		return toCty(elems)
	case []any:
		if len(val) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(val))
		for i, e := range val {
			c, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = c
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(val))
		for k, e := range val {
			c, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = c
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.StringVal(fmt.Sprint(val)), nil
	}
}

// fromCty converts a known cty value into plain Go data. Whole numbers become int.
func fromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, zerr.New("value is not known")
	}

	ty := v.Type()
	switch {
	case ty.Equals(cty.String):
		return v.AsString(), nil
	case ty.Equals(cty.Bool):
		return v.True(), nil
	case ty.Equals(cty.Number):
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			if n, err := safecast.Conv[int](i); err == nil {
				return n, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()
			conv, err := fromCty(e)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, e := it.Element()
			conv, err := fromCty(e)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = conv
		}
		return out, nil
	default:
		return nil, zerr.With(zerr.New("unsupported value type"), "type", ty.FriendlyName())
	}
}
