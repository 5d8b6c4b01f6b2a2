// Package value implements the engine's dynamic Value tree (§3.1): a tagged
// sum of {undefined, null, bool, unsigned64, signed64, real64, string,
// array, object}, plus bracketed path lookup. The teacher's own dynamic
// value (internal/vm/value.go) is a bare `interface{}` dispatched by type
// switch; here the payload is a single struct with a Kind discriminator and
// one field per variant instead, since the spec names an explicit "tagged
// sum with a discriminator and a flat payload union" (§9) as the data model
// to build, not an opaque interface.
package value

import (
	"qentem/internal/digit"
	"qentem/internal/harray"
)

// Kind discriminates which of Value's fields is meaningful.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindUInt64
	KindInt64
	KindReal64
	KindString
	KindArray
	KindObject
)

// Object is the HArray instantiation backing the Object variant (§3.2).
type Object = harray.HArray[Value]

// Value is the tagged sum itself. The zero Value is Undefined.
type Value struct {
	kind Kind
	b    bool
	u    uint64
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  *Object
}

// Undefined is the zero Value; path lookup of a missing key yields it.
var Undefined = Value{kind: KindUndefined}

// Null is distinct from Undefined (§3.1: "prints null").
var Null = Value{kind: KindNull}

func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func UInt64(u uint64) Value { return Value{kind: KindUInt64, u: u} }
func Int64(i int64) Value   { return Value{kind: KindInt64, i: i} }
func Real64(f float64) Value { return Value{kind: KindReal64, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }
func Obj(o *Object) Value   { return Value{kind: KindObject, obj: o} }

// NewObject returns an empty Object-kind Value ready for Insert.
func NewObject() Value {
	return Obj(harray.New[Value](0))
}

// NewArray returns an empty Array-kind Value.
func NewArray() Value {
	return Array(nil)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsContainer() bool { return v.kind == KindArray || v.kind == KindObject }

// AsBool returns the boolean payload; only meaningful when Kind()==KindBool.
func (v Value) AsBool() bool { return v.b }

// AsUInt64 returns the unsigned payload; only meaningful when
// Kind()==KindUInt64.
func (v Value) AsUInt64() uint64 { return v.u }

// AsInt64 returns the signed payload; only meaningful when Kind()==KindInt64.
func (v Value) AsInt64() int64 { return v.i }

// AsReal64 returns the real payload; only meaningful when Kind()==KindReal64.
func (v Value) AsReal64() float64 { return v.f }

// AsString returns the string payload; only meaningful when
// Kind()==KindString.
func (v Value) AsString() string { return v.s }

// AsArray returns the element slice; only meaningful when Kind()==KindArray.
func (v Value) AsArray() []Value { return v.arr }

// AsObject returns the backing HArray; only meaningful when
// Kind()==KindObject.
func (v Value) AsObject() *Object { return v.obj }

// Len reports the element/entry count of an Array or Object, or 0 for any
// other Kind.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Truthy reports truthiness: a number != 0, a non-empty string, true, and
// any Array or Object (even an empty one) are truthy; false, zero, the empty
// string, Null and Undefined are not.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindUInt64:
		return v.u != 0
	case KindInt64:
		return v.i != 0
	case KindReal64:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindNull, KindUndefined:
		return false
	default:
		return true // Array/Object: presence is truthy regardless of emptiness
	}
}

// splitPath tokenizes a path expression on '[' ']' (§3.1): a leading bare
// identifier with no brackets is the one-element path; otherwise every
// bracketed segment, in order, is one token.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	first := -1
	for i := 0; i < len(path); i++ {
		if path[i] == '[' {
			first = i
			break
		}
	}
	if first < 0 {
		return []string{path}
	}
	var tokens []string
	if first > 0 {
		tokens = append(tokens, path[:first])
	}
	i := first
	for i < len(path) {
		if path[i] != '[' {
			i++
			continue
		}
		end := -1
		for j := i + 1; j < len(path); j++ {
			if path[j] == ']' {
				end = j
				break
			}
		}
		if end < 0 {
			break
		}
		tokens = append(tokens, path[i+1:end])
		i = end + 1
	}
	return tokens
}

// Resolve walks path (§3.1) against root, returning Undefined on any
// traversal failure: the current value isn't a container, a string token
// isn't found in an Object, or an index token doesn't parse or is out of
// range for an Array.
func Resolve(root Value, path string) Value {
	tokens := splitPath(path)
	cur := root
	for _, tok := range tokens {
		switch cur.kind {
		case KindObject:
			v, ok := cur.obj.Get(tok)
			if !ok {
				return Undefined
			}
			cur = v
		case KindArray:
			idx, ok := parseIndex(tok)
			if !ok || idx >= len(cur.arr) {
				return Undefined
			}
			cur = cur.arr[idx]
		default:
			return Undefined
		}
	}
	return cur
}

// SplitHead splits path into its leading bare segment (before the first
// '[') and the remaining bracketed tail (starting with '['). Callers that
// need to resolve the head against something other than path's own root
// (the template engine's loop-variable bindings) use this instead of
// splitPath directly.
func SplitHead(path string) (head, rest string) {
	for i := 0; i < len(path); i++ {
		if path[i] == '[' {
			return path[:i], path[i:]
		}
	}
	return path, ""
}

// parseIndex parses tok as an Array index: an unsigned decimal integer,
// reusing Digit's numeral grammar rather than a separate hand-rolled one.
func parseIndex(tok string) (int, bool) {
	n, consumed, ok := digit.ParseNumber(tok)
	if !ok || consumed != len(tok) || n.Kind != digit.KindUnsigned {
		return 0, false
	}
	return int(n.U), true
}
