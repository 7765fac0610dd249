package daemon

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rdctools/rdcq/internal/rpcerr"
)

// handleAssert evaluates a comparison predicate against another method's
// result (spec.md §5 supplemented assert-ci contract): resolve "method"
// with "args", extract "field" (dot-path into the result), and compare
// against "expect" using "op". The CLI's exit-code mapping for
// assert-triangle-count/assert-pass-exists/assert-no-validation-errors
// lives outside the daemon; this RPC only returns the verdict.
func handleAssert(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	method, err := requireString(p, "method")
	if err != nil {
		return nil, err
	}
	h, ok := table[method]
	if !ok {
		return nil, rpcerr.New(rpcerr.InvalidArgs, "unknown method %q", method)
	}
	args, _ := p["args"].(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	result, err := h(ctx, d, args)
	if err != nil {
		return nil, err
	}

	field := stringParam(p, "field", "")
	value := result
	if field != "" {
		value, err = extractField(result, field)
		if err != nil {
			return nil, err
		}
	}

	op := stringParam(p, "op", "eq")
	expect, hasExpect := p["expect"]
	if !hasExpect {
		return map[string]interface{}{"value": value}, nil
	}
	ok, err = compare(op, value, expect)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": ok, "value": value}, nil
}

func extractField(v interface{}, path string) (interface{}, error) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, rpcerr.New(rpcerr.InvalidArgs, "cannot descend into %q: not an object", seg)
		}
		next, ok := m[seg]
		if !ok {
			return nil, rpcerr.New(rpcerr.NotFound, "field %q not present in result", seg)
		}
		cur = next
	}
	return cur, nil
}

func compare(op string, actual, expect interface{}) (bool, error) {
	switch op {
	case "eq":
		return fmt.Sprint(actual) == fmt.Sprint(expect), nil
	case "ne":
		return fmt.Sprint(actual) != fmt.Sprint(expect), nil
	case "contains":
		return strings.Contains(fmt.Sprint(actual), fmt.Sprint(expect)), nil
	case "gt", "gte", "lt", "lte":
		a, err := toFloat(actual)
		if err != nil {
			return false, err
		}
		e, err := toFloat(expect)
		if err != nil {
			return false, err
		}
		switch op {
		case "gt":
			return a > e, nil
		case "gte":
			return a >= e, nil
		case "lt":
			return a < e, nil
		default:
			return a <= e, nil
		}
	default:
		return false, rpcerr.New(rpcerr.InvalidArgs, "unknown comparison op %q", op)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, rpcerr.Wrap(rpcerr.InvalidArgs, err, "cannot compare %q numerically", t)
		}
		return f, nil
	default:
		return 0, rpcerr.New(rpcerr.InvalidArgs, "value is not numeric")
	}
}
