package template

import "qentem/internal/value"

// scope is a singly-linked chain of loop-variable bindings (§4.5: "bindings
// of outer loops remain visible by name"). The zero value (nil *scope) means
// "no bindings yet", with the root Value as the implicit fallback.
type scope struct {
	name   string
	val    value.Value
	parent *scope
}

func (sc *scope) bind(name string, v value.Value) *scope {
	return &scope{name: name, val: v, parent: sc}
}

func (sc *scope) lookup(name string) (value.Value, bool) {
	for s := sc; s != nil; s = s.parent {
		if s.name == name {
			return s.val, true
		}
	}
	return value.Undefined, false
}

// currentValue is "the current value context" (§4.5): the innermost bound
// loop element, or root if no loop encloses this point.
func currentValue(sc *scope, root value.Value) value.Value {
	if sc != nil {
		return sc.val
	}
	return root
}

// resolvePath resolves PATH (§3.1) against the nearest scope binding whose
// name matches the path's leading segment, falling back to root otherwise.
func resolvePath(sc *scope, root value.Value, path string) value.Value {
	head, rest := value.SplitHead(path)
	if v, ok := sc.lookup(head); ok {
		if rest == "" {
			return v
		}
		return value.Resolve(v, rest)
	}
	return value.Resolve(root, path)
}
