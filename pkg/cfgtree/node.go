package cfgtree

import (
	"encoding/json"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Node is one block of a configuration document.
type Node struct {
	Type     string
	Labels   []string
	Children []*Node

	keys   []string
	values map[string]cty.Value
}

// NewNode creates an empty node of the given block type.
func NewNode(typ string, labels ...string) *Node {
	return &Node{Type: typ, Labels: labels, values: make(map[string]cty.Value)}
}

// Name returns the first label, or "" for unlabelled blocks.
func (n *Node) Name() string {
	if n == nil || len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// Set stores an attribute value, preserving first-insertion order of keys.
func (n *Node) Set(key string, v cty.Value) *Node {
	if _, ok := n.values[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.values[key] = v
	return n
}

// Add appends a child block and returns the parent.
func (n *Node) Add(child *Node) *Node {
	n.Children = append(n.Children, child)
	return n
}

// Keys returns attribute names in document order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Has reports whether the attribute is present.
func (n *Node) Has(key string) bool {
	if n == nil {
		return false
	}
	_, ok := n.values[key]
	return ok
}

// Value returns the raw attribute value.
func (n *Node) Value(key string) (cty.Value, bool) {
	if n == nil {
		return cty.NilVal, false
	}
	v, ok := n.values[key]
	return v, ok
}

// MarshalJSON encodes the node, attributes in document order, so that two
// nodes with equal content encode to equal bytes.
func (n *Node) MarshalJSON() ([]byte, error) {
	type attr struct {
		Key   string                  `json:"key"`
		Value ctyjson.SimpleJSONValue `json:"value"`
	}
	out := struct {
		Type     string   `json:"type"`
		Labels   []string `json:"labels,omitempty"`
		Attrs    []attr   `json:"attrs,omitempty"`
		Children []*Node  `json:"children,omitempty"`
	}{Type: n.Type, Labels: n.Labels, Children: n.Children}
	for _, k := range n.keys {
		out.Attrs = append(out.Attrs, attr{Key: k, Value: ctyjson.SimpleJSONValue{Value: n.values[k]}})
	}
	return json.Marshal(out)
}

// Blocks returns all direct children of the given type, in document order.
func (n *Node) Blocks(typ string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// Block returns the first child of the given type, or nil.
func (n *Node) Block(typ string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Type == typ {
			return c
		}
	}
	return nil
}

// BlockNamed returns the first child of the given type whose name matches.
func (n *Node) BlockNamed(typ, name string) *Node {
	for _, c := range n.Blocks(typ) {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// =============================================================================
// Typed accessors
// =============================================================================

// String returns the attribute as a string, or def when absent or unconvertible.
func (n *Node) String(key, def string) string {
	v, ok := n.Value(key)
	if !ok {
		return def
	}
	s, ok := asString(v)
	if !ok {
		return def
	}
	return s
}

// Float returns the attribute as a float64. Numeric strings are accepted.
func (n *Node) Float(key string, def float64) float64 {
	v, ok := n.Value(key)
	if !ok {
		return def
	}
	f, ok := asFloat(v)
	if !ok {
		return def
	}
	return f
}

// Int returns the attribute truncated to an int.
func (n *Node) Int(key string, def int) int {
	v, ok := n.Value(key)
	if !ok {
		return def
	}
	f, ok := asFloat(v)
	if !ok {
		return def
	}
	return int(f)
}

// Bool returns the attribute as a bool. "true"/"false" strings are accepted.
func (n *Node) Bool(key string, def bool) bool {
	v, ok := n.Value(key)
	if !ok || v.IsNull() || !v.IsKnown() {
		return def
	}
	cv, err := convert.Convert(v, cty.Bool)
	if err != nil || cv.IsNull() {
		return def
	}
	var b bool
	if err := gocty.FromCtyValue(cv, &b); err != nil {
		return def
	}
	return b
}

// Strings returns a list attribute as strings. A single string value yields a
// one-element slice; a comma-separated string is split.
func (n *Node) Strings(key string) []string {
	v, ok := n.Value(key)
	if !ok || v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	if ty.IsListType() || ty.IsTupleType() || ty.IsSetType() {
		out := make([]string, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			if s, ok := asString(ev); ok {
				out = append(out, s)
			}
		}
		return out
	}
	s, ok := asString(v)
	if !ok || s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Floats returns a numeric list attribute. A "x,y,z" string is also accepted.
// Elements that do not convert are skipped.
func (n *Node) Floats(key string) []float64 {
	v, ok := n.Value(key)
	if !ok || v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	if ty.IsListType() || ty.IsTupleType() {
		out := make([]float64, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			if f, ok := asFloat(ev); ok {
				out = append(out, f)
			}
		}
		return out
	}
	var out []float64
	for _, s := range n.Strings(key) {
		if f, ok := asFloat(cty.StringVal(s)); ok {
			out = append(out, f)
		}
	}
	return out
}

// FloatsOr returns [Node.Floats] when it has exactly want elements, def otherwise.
func (n *Node) FloatsOr(key string, want int, def []float64) []float64 {
	f := n.Floats(key)
	if len(f) != want {
		return def
	}
	return f
}

// Ints returns an integer list attribute.
func (n *Node) Ints(key string) []int {
	fs := n.Floats(key)
	if fs == nil {
		return nil
	}
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = int(f)
	}
	return out
}

func asString(v cty.Value) (string, bool) {
	if v.IsNull() || !v.IsKnown() {
		return "", false
	}
	cv, err := convert.Convert(v, cty.String)
	if err != nil || cv.IsNull() {
		return "", false
	}
	return cv.AsString(), true
}

func asFloat(v cty.Value) (float64, bool) {
	if v.IsNull() || !v.IsKnown() {
		return 0, false
	}
	if v.Type() == cty.String {
		s := strings.TrimSpace(v.AsString())
		if s == "" {
			return 0, false
		}
		v = cty.StringVal(s)
	}
	cv, err := convert.Convert(v, cty.Number)
	if err != nil || cv.IsNull() {
		return 0, false
	}
	f, _ := cv.AsBigFloat().Float64()
	return f, true
}
