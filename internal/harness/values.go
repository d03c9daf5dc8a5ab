package harness

import (
	"fmt"

	"github.com/roach88/trigconf/internal/ir"
)

// fromYAML converts a value decoded from scenario YAML to an IRValue.
func fromYAML(v any) (ir.IRValue, error) {
	switch val := v.(type) {
	case nil:
		return ir.IRNull{}, nil
	case string:
		return ir.IRString(val), nil
	case bool:
		return ir.IRBool(val), nil
	case int:
		return ir.IRInt(val), nil
	case int64:
		return ir.IRInt(val), nil
	case uint64:
		return ir.IRFloat(float64(val)), nil
	case float64:
		return ir.IRFloat(val), nil
	case []any:
		arr := make(ir.IRArray, len(val))
		for i, elem := range val {
			irElem, err := fromYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(ir.IRObject, len(val))
		for k, elem := range val {
			irElem, err := fromYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// irEqual compares two values structurally. Numbers compare by value, so
// an integer in YAML matches a float in the document.
func irEqual(a, b ir.IRValue) bool {
	if af, ok := number(a); ok {
		bf, ok := number(b)
		return ok && af == bf
	}

	switch av := a.(type) {
	case ir.IRNull:
		_, ok := b.(ir.IRNull)
		return ok
	case ir.IRString:
		bv, ok := b.(ir.IRString)
		return ok && av == bv
	case ir.IRBool:
		bv, ok := b.(ir.IRBool)
		return ok && av == bv
	case ir.IRArray:
		bv, ok := b.(ir.IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !irEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case ir.IRObject:
		bv, ok := b.(ir.IRObject)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !irEqual(v, w) {
				return false
			}
		}
		return true
	}
	return false
}

func number(v ir.IRValue) (float64, bool) {
	switch n := v.(type) {
	case ir.IRInt:
		return float64(n), true
	case ir.IRFloat:
		return float64(n), true
	}
	return 0, false
}

// render formats a value for assertion messages.
func render(v ir.IRValue) string {
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
