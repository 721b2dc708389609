package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Items decodes the order item list, which arrives as a proper array, a
// JSON-encoded string, or a doubly JSON-encoded string. It always returns a
// non-nil slice of display labels; a string that fails to parse twice is kept
// verbatim as a single element.
func Items(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case []any:
		return labelSlice(v)
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case string:
		return itemsFromString(v)
	default:
		return []string{itemLabel(v)}
	}
}

func itemsFromString(s string) []string {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return []string{s}
	}
	// double-encoded: the first parse produced another string
	if inner, ok := parsed.(string); ok {
		var again any
		if err := json.Unmarshal([]byte(inner), &again); err != nil {
			return []string{inner}
		}
		parsed = again
	}

	switch v := parsed.(type) {
	case []any:
		return labelSlice(v)
	case map[string]any:
		return []string{itemLabel(v)}
	default:
		return []string{fmt.Sprint(v)}
	}
}

func labelSlice(items []any) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, itemLabel(it))
	}
	return out
}

// itemLabel resolves a single line item to a display label, following the
// field fallbacks the backend is known to use, with a variant in parentheses
// and a quantity suffix when present.
func itemLabel(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		name := firstString(v["name"], nestedString(v, "menuItem", "name"), v["itemName"], v["title"])
		if name == "" {
			name = "Item"
		}

		parts := []string{name}
		if variant := firstString(v["variantName"], nestedString(v, "variant", "name")); variant != "" {
			parts = append(parts, "("+variant+")")
		}
		if qty, ok := toFloat(firstNonNil(v["quantity"], v["qty"])); ok && qty > 0 {
			parts = append(parts, fmt.Sprintf("x%d", int(qty)))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}

func firstString(vals ...any) string {
	for _, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func nestedString(m map[string]any, outer, inner string) any {
	if sub, ok := m[outer].(map[string]any); ok {
		return sub[inner]
	}
	return nil
}
