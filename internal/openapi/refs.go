package openapi

import (
	"strings"
)

// ReplaceRefs returns a copy of the document with every internal `$ref`
// replaced by the schema it points to. External references are not supported;
// resolution is cycle-safe per reference chain.
func ReplaceRefs(doc map[string]any) (map[string]any, error) {
	r := resolver{root: doc}
	out, err := r.resolve(doc, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

type resolver struct {
	root map[string]any
}

func (r resolver) resolve(node any, active map[string]bool) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if ref, ok := n["$ref"].(string); ok {
			if active[ref] {
				return nil, newSchemaErrorf("Cyclic `$ref` detected at `%s`.", ref)
			}
			target, err := r.lookup(ref)
			if err != nil {
				return nil, err
			}
			active[ref] = true
			resolved, err := r.resolve(target, active)
			delete(active, ref)
			return resolved, err
		}
		out := make(map[string]any, len(n))
		for k, v := range n {
			rv, err := r.resolve(v, active)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			rv, err := r.resolve(v, active)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return node, nil
	}
}

func (r resolver) lookup(ref string) (any, error) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, newSchemaErrorf(
			"Unsupported `$ref` `%s`: only references internal to the document are resolved.", ref,
		)
	}
	var current any = r.root
	for _, part := range strings.Split(strings.TrimPrefix(ref, "#/"), "/") {
		// JSON pointer escapes, ~1 before ~0
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		m, ok := current.(map[string]any)
		if !ok {
			return nil, newSchemaErrorf("Dangling `$ref` `%s`: `%s` is not an object.", ref, part)
		}
		current, ok = m[part]
		if !ok {
			return nil, newSchemaErrorf("Dangling `$ref` `%s`: `%s` not found.", ref, part)
		}
	}
	return current, nil
}
