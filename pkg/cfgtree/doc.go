// Package cfgtree reads HCL documents into a generic tree of named nodes.
//
// The engine never decodes configuration into fixed Go structs. Catalogs and
// part definitions are consumed as a tree: each [Node] has a block type, optional
// labels, evaluated attribute values, and ordered child blocks. Typed accessors
// ([Node.Float], [Node.Strings], [Node.Floats], ...) convert values on demand and
// fall back to a caller-supplied default, so a missing or malformed key degrades
// a single setting rather than failing the whole document.
//
// # Document Shape
//
//	layout "default" {
//	  title = "Default"
//	  position {
//	    position = [0, 0, 0]
//	    scale    = [1, 1, 1]
//	  }
//	}
//
// Parsing this yields a root node with one child of type "layout", labelled
// "default", which itself has a "position" child.
//
// Attribute expressions are evaluated without variables or functions; any
// expression that needs an evaluation context is reported as an
// INVALID_CONFIG error.
package cfgtree
